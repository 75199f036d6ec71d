package tracker

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/iamwavecut/tubetool/internal/errs"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := New(nil)

	id := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)
	if len(id) != 8 {
		t.Fatalf("id = %q, want 8 chars", id)
	}

	snap, err := tr.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != store.StatusStarting {
		t.Errorf("status = %q, want %q", snap.Status, store.StatusStarting)
	}
	if snap.Stage != "Preparando..." {
		t.Errorf("stage = %q", snap.Stage)
	}
	if snap.Done {
		t.Error("new task already done")
	}
	if snap.Files == nil || snap.Errors == nil {
		t.Error("files and errors must marshal as arrays, not null")
	}

	if _, err := tr.Get(ctx, "missing"); !errors.Is(err, errs.ErrTaskNotFound) {
		t.Fatalf("get missing err = %v, want ErrTaskNotFound", err)
	}
}

func TestSnapshotWireFormat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := New(nil)
	id := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)

	snap, err := tr.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "url", "video_id", "status", "etapa", "progresso", "titulo", "pasta", "arquivos", "erros", "concluido"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("key %q missing from wire format", key)
		}
	}
	if _, ok := decoded["arquivos"].([]any); !ok {
		t.Errorf("arquivos = %v, want array", decoded["arquivos"])
	}
}

func TestProgressAndFinish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := New(newTestStore(t))
	id := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)

	tr.SetProgress(ctx, id, "(1/5) Buscando transcrição...", 20)
	tr.AddError(id, "Falha no download de 1080p.")

	snap, err := tr.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != store.StatusProcessing || snap.Progress != 20 {
		t.Errorf("status = %q progress = %d", snap.Status, snap.Progress)
	}
	if len(snap.Errors) != 1 {
		t.Errorf("errors = %v", snap.Errors)
	}

	res := pipeline.Result{
		VideoID: "dQw4w9WgXcQ",
		Title:   "Example Video",
		Folder:  "/downloads/25-08-26 Example Video",
		Files: []pipeline.File{
			{Name: "Example Video_720p.mp4", Kind: pipeline.KindVideo},
			{Name: "Example Video_transcricao_original.txt", Kind: pipeline.KindTranscript},
		},
		Errors: []string{"Falha no download de 1080p."},
	}
	tr.Finish(ctx, id, res, nil)

	snap, err = tr.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after finish: %v", err)
	}
	if !snap.Done || snap.Status != store.StatusDone || snap.Progress != 100 {
		t.Errorf("done = %v status = %q progress = %d", snap.Done, snap.Status, snap.Progress)
	}
	if snap.Stage != "Concluído!" {
		t.Errorf("stage = %q", snap.Stage)
	}
	if len(snap.Files) != 2 || snap.Files[0].Name != "Example Video_720p.mp4" || snap.Files[0].Kind != "video" {
		t.Errorf("files = %+v", snap.Files)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "Falha no download de 1080p." {
		t.Errorf("errors = %v", snap.Errors)
	}
}

func TestFinishWithError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := New(nil)
	id := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)

	tr.Finish(ctx, id, pipeline.Result{VideoID: "dQw4w9WgXcQ"}, errors.New("create task folder: disk full"))

	snap, err := tr.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != store.StatusError {
		t.Errorf("status = %q, want %q", snap.Status, store.StatusError)
	}
	if snap.Stage != "Erro: create task folder: disk full" {
		t.Errorf("stage = %q", snap.Stage)
	}
	if snap.Done {
		t.Error("failed task must not report done")
	}
	if len(snap.Errors) != 1 {
		t.Errorf("errors = %v", snap.Errors)
	}
}

func TestRecentHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := New(newTestStore(t))

	tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)
	second := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginTelegram)
	third := tr.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginCLI)
	tr.Finish(ctx, second, pipeline.Result{VideoID: "dQw4w9WgXcQ", Title: "Example Video"}, nil)

	recent, err := tr.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d entries, want 2", len(recent))
	}
	if recent[0].ID != third || recent[1].ID != second {
		t.Errorf("order = [%s, %s], want [%s, %s]", recent[0].ID, recent[1].ID, third, second)
	}
	if !recent[1].Done || recent[1].Title != "Example Video" {
		t.Errorf("finished entry = %+v", recent[1])
	}
}

func TestRecentWithoutStore(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	tr.Create(context.Background(), watchURL, "dQw4w9WgXcQ", store.OriginWeb)

	recent, err := tr.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("recent = %+v, want empty without a store", recent)
	}
}

func TestGetFallsBackToStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	first := New(st)
	id := first.Create(ctx, watchURL, "dQw4w9WgXcQ", store.OriginWeb)
	first.Finish(ctx, id, pipeline.Result{
		VideoID: "dQw4w9WgXcQ",
		Title:   "Example Video",
		Folder:  "/downloads/25-08-26 Example Video",
		Files:   []pipeline.File{{Name: "Example Video_720p.mp4", Kind: pipeline.KindVideo}},
	}, nil)

	// A fresh tracker stands in for a restarted process.
	second := New(st)
	snap, err := second.Get(ctx, id)
	if err != nil {
		t.Fatalf("get from store: %v", err)
	}
	if snap.Title != "Example Video" || !snap.Done {
		t.Errorf("title = %q done = %v", snap.Title, snap.Done)
	}
	if len(snap.Files) != 1 || snap.Files[0].Name != "Example Video_720p.mp4" {
		t.Errorf("files = %+v", snap.Files)
	}

	if _, err := second.Get(ctx, "missing"); !errors.Is(err, errs.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}
