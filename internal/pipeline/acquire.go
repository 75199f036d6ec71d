package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/media/ytdlp"
	"github.com/iamwavecut/tubetool/internal/transcript"
	"github.com/iamwavecut/tubetool/internal/translate"
)

var preferredLanguages = []string{"pt", "pt-BR", "en", "en-US"}

// fetchTranscript pulls captions, saves the original transcript into the
// task folder and produces Portuguese segments for dubbing. It returns nil
// when the video has no captions, the source is already Portuguese, or no
// translation could be produced.
func (j *job) fetchTranscript(ctx context.Context, folder string) []transcript.Segment {
	track, segments := j.p.findCaptions(ctx, j.url)
	if track == nil {
		j.note("Não foi possível obter transcrição.")
		return nil
	}

	label := track.Lang
	if track.Auto {
		label += " [auto-gerada]"
	}
	origPath := filepath.Join(folder, j.base+"_transcricao_original.txt")
	if err := transcript.Save(origPath, j.res.Title, label, segments); err != nil {
		log.WithError(err).Warn("could not save transcript")
		j.note("Não foi possível obter transcrição.")
		return nil
	}
	j.addFile(filepath.Base(origPath), KindTranscript)

	if strings.HasPrefix(strings.ToLower(track.Lang), "pt") {
		// already portuguese, nothing to dub over
		return nil
	}
	if !j.opts.TranslatePT {
		return nil
	}

	ptSegments, ptLabel := j.p.portugueseSegments(ctx, j.url, segments)
	if len(ptSegments) == 0 {
		j.note("Não foi possível gerar tradução PT.")
		return nil
	}
	ptPath := filepath.Join(folder, j.base+"_transcricao_PT.txt")
	if err := transcript.Save(ptPath, j.res.Title, ptLabel, ptSegments); err != nil {
		log.WithError(err).Warn("could not save PT transcript")
	} else {
		j.addFile(filepath.Base(ptPath), KindTranscript)
	}
	return ptSegments
}

// findCaptions walks the caption sources from best to worst: manual tracks
// in the preferred languages, auto captions in those languages, any manual
// track, then the original-language auto track.
func (p *Pipeline) findCaptions(ctx context.Context, url string) (*ytdlp.SubtitleTrack, []transcript.Segment) {
	workDir, err := os.MkdirTemp("", "subs_")
	if err != nil {
		log.WithError(err).Warn("could not create captions workspace")
		return nil, nil
	}
	defer os.RemoveAll(workDir)

	attempts := []struct {
		langs []string
		auto  bool
	}{
		{preferredLanguages, false},
		{preferredLanguages, true},
		{[]string{"all"}, false},
		{[]string{".*-orig"}, true},
	}
	for i, att := range attempts {
		dir := filepath.Join(workDir, strconv.Itoa(i))
		if err := os.Mkdir(dir, 0o755); err != nil {
			continue
		}
		tracks, err := p.dl.DownloadSubtitles(ctx, url, dir, att.langs, att.auto)
		if err != nil || len(tracks) == 0 {
			continue
		}
		track := pickTrack(tracks)
		segments, err := parseTrack(track.Path)
		if err != nil || len(segments) == 0 {
			continue
		}
		return &track, segments
	}
	return nil, nil
}

// portugueseSegments produces PT text for dubbing, first from the
// platform's own translated captions, then by translating locally.
func (p *Pipeline) portugueseSegments(ctx context.Context, url string, original []transcript.Segment) ([]transcript.Segment, string) {
	if dir, err := os.MkdirTemp("", "subs_pt_"); err == nil {
		defer os.RemoveAll(dir)
		tracks, err := p.dl.DownloadSubtitles(ctx, url, dir, []string{"pt"}, true)
		if err == nil && len(tracks) > 0 {
			if segments, err := parseTrack(tracks[0].Path); err == nil && len(segments) > 0 {
				return segments, "Português (pt) [traduzido via YouTube]"
			}
		}
	}
	if p.translator == nil || len(original) == 0 {
		return nil, ""
	}
	return translate.Segments(ctx, p.translator, original), "Português (pt-BR) [traduzido localmente]"
}

func parseTrack(path string) ([]transcript.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return transcript.ParseJSON3(data)
}

// pickTrack prefers the configured language order, then the shortest
// language tag for a stable choice.
func pickTrack(tracks []ytdlp.SubtitleTrack) ytdlp.SubtitleTrack {
	best := tracks[0]
	bestRank := langRank(best.Lang)
	for _, tr := range tracks[1:] {
		if r := langRank(tr.Lang); r < bestRank || (r == bestRank && tr.Lang < best.Lang) {
			best, bestRank = tr, r
		}
	}
	return best
}

func langRank(lang string) int {
	lang = strings.ToLower(lang)
	for i, pref := range preferredLanguages {
		pref = strings.ToLower(pref)
		if lang == pref || strings.HasPrefix(lang, pref+"-") {
			return i
		}
	}
	return len(preferredLanguages)
}
