package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/errs"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
	"github.com/iamwavecut/tubetool/internal/youtube"
	"github.com/iamwavecut/tubetool/resources"
)

// processRequest is the POST /api/process payload. Option fields are
// pointers so absent keys keep their defaults.
type processRequest struct {
	URL          string `json:"url"`
	Transcript   *bool  `json:"transcricao"`
	Download720  *bool  `json:"download_720"`
	Download1080 *bool  `json:"download_1080"`
	TranslatePT  *bool  `json:"traducao_pt"`
	Enhance      *bool  `json:"melhoria_audio"`
	Dub          *bool  `json:"dublagem_pt"`
}

func (p processRequest) options() pipeline.Options {
	opts := pipeline.DefaultOptions()
	apply := func(key string, v *bool) {
		if v != nil {
			opts.Set(key, *v)
		}
	}
	apply(pipeline.OptTranscript, p.Transcript)
	apply(pipeline.OptDownload720, p.Download720)
	apply(pipeline.OptDownload1080, p.Download1080)
	apply(pipeline.OptTranslate, p.TranslatePT)
	apply(pipeline.OptEnhance, p.Enhance)
	apply(pipeline.OptDub, p.Dub)
	return opts
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, "URL não fornecida")
		return
	}
	videoID, err := youtube.ExtractID(url)
	if err != nil {
		writeError(w, http.StatusBadRequest, "URL inválida do YouTube")
		return
	}

	opts := req.options()
	id := s.tasks.Create(r.Context(), url, videoID, store.OriginWeb)
	job := func() { s.runTask(s.baseCtx, id, url, opts) }
	select {
	case s.jobs <- job:
	default:
		s.tasks.Finish(r.Context(), id, pipeline.Result{VideoID: videoID}, errors.New("fila de processamento cheia"))
		writeError(w, http.StatusServiceUnavailable, "Servidor ocupado, tente novamente")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tarefa_id": id})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.tasks.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, errs.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "Tarefa não encontrada")
		return
	}
	if err != nil {
		log.WithError(err).Error("cant load task")
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

const tasksDefaultLimit = 20

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	limit := tasksDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limite inválido")
			return
		}
		limit = n
	}
	tasks, err := s.tasks.Recent(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("cant list recent tasks")
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type (
	folderEntry struct {
		Name  string      `json:"nome"`
		Files []fileEntry `json:"arquivos"`
	}

	fileEntry struct {
		Name    string `json:"nome"`
		Size    int64  `json:"tamanho"`
		SizeFmt string `json:"tamanho_fmt"`
	}
)

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.DownloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []folderEntry{})
			return
		}
		log.WithError(err).Error("cant list downloads")
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() > entries[j].Name() })

	folders := []folderEntry{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := folderEntry{Name: entry.Name(), Files: []fileEntry{}}
		files, err := os.ReadDir(filepath.Join(s.cfg.DownloadDir, entry.Name()))
		if err != nil {
			log.WithError(err).WithField("folder", entry.Name()).Warn("cant list folder")
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			folder.Files = append(folder.Files, fileEntry{
				Name:    f.Name(),
				Size:    info.Size(),
				SizeFmt: humanSize(info.Size()),
			})
		}
		folders = append(folders, folder)
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	root := filepath.Clean(s.cfg.DownloadDir)
	full := filepath.Join(root, filepath.FromSlash(mux.Vars(r)["path"]))
	if !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		writeError(w, http.StatusNotFound, "Arquivo não encontrado")
		return
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "Arquivo não encontrado")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(full)))
	http.ServeFile(w, r, full)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := resources.FS.ReadFile("web/index.html")
	if err != nil {
		log.WithError(err).Error("cant read index page")
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("cant encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
