// Package tracker keeps live task state in memory and writes it through
// to the store so finished tasks survive a restart.
package tracker

import (
	"context"
	"sync"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/errs"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
)

// File is one produced artifact as the status API reports it.
type File struct {
	Name string `json:"nome"`
	Kind string `json:"tipo"`
}

// Snapshot is the wire form of one task. Clients poll it until Done
// flips, so the key names never change.
type Snapshot struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	VideoID  string   `json:"video_id"`
	Status   string   `json:"status"`
	Stage    string   `json:"etapa"`
	Progress int      `json:"progresso"`
	Title    string   `json:"titulo"`
	Folder   string   `json:"pasta"`
	Files    []File   `json:"arquivos"`
	Errors   []string `json:"erros"`
	Done     bool     `json:"concluido"`
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Files = append([]File{}, s.Files...)
	c.Errors = append([]string{}, s.Errors...)
	return &c
}

type Tracker struct {
	mu    sync.RWMutex
	tasks map[string]*Snapshot
	store *store.Store
}

// New wires a tracker. st may be nil, which keeps tasks memory-only.
func New(st *store.Store) *Tracker {
	return &Tracker{tasks: map[string]*Snapshot{}, store: st}
}

// Create registers a new task accepted by the given surface and returns
// its id.
func (t *Tracker) Create(ctx context.Context, url, videoID, origin string) string {
	id := uuid.New()[:8]
	snap := &Snapshot{
		ID:      id,
		URL:     url,
		VideoID: videoID,
		Status:  store.StatusStarting,
		Stage:   "Preparando...",
		Files:   []File{},
		Errors:  []string{},
	}
	t.mu.Lock()
	t.tasks[id] = snap
	t.mu.Unlock()

	if t.store != nil {
		task := &store.Task{ID: id, VideoID: videoID, URL: url, Origin: origin, Stage: snap.Stage}
		if err := t.store.CreateTask(ctx, task); err != nil {
			log.WithError(err).WithField("task", id).Warn("cant persist new task")
		}
	}
	return id
}

// SetProgress moves a task's display line.
func (t *Tracker) SetProgress(ctx context.Context, id, stage string, percent int) {
	t.mu.Lock()
	snap, ok := t.tasks[id]
	if ok {
		snap.Status = store.StatusProcessing
		snap.Stage = stage
		snap.Progress = percent
	}
	t.mu.Unlock()
	if !ok || t.store == nil {
		return
	}
	if err := t.store.UpdateProgress(ctx, id, store.StatusProcessing, stage, percent); err != nil {
		log.WithError(err).WithField("task", id).Warn("cant persist task progress")
	}
}

// AddError appends a non-fatal problem to the task's error list. The
// final Finish call persists the full list.
func (t *Tracker) AddError(id, msg string) {
	t.mu.Lock()
	if snap, ok := t.tasks[id]; ok {
		snap.Errors = append(snap.Errors, msg)
	}
	t.mu.Unlock()
}

// Finish records the job outcome. A nil runErr marks the task done;
// anything else marks it failed with the error on the display line.
func (t *Tracker) Finish(ctx context.Context, id string, res pipeline.Result, runErr error) {
	t.mu.Lock()
	snap, ok := t.tasks[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	snap.Title = res.Title
	snap.Folder = res.Folder
	snap.Files = make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		snap.Files = append(snap.Files, File{Name: f.Name, Kind: f.Kind})
	}
	snap.Errors = append([]string{}, res.Errors...)
	if runErr != nil {
		snap.Status = store.StatusError
		snap.Stage = "Erro: " + runErr.Error()
		snap.Errors = append(snap.Errors, runErr.Error())
	} else {
		snap.Status = store.StatusDone
		snap.Stage = "Concluído!"
		snap.Progress = 100
		snap.Done = true
	}
	c := snap.clone()
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	task := &store.Task{
		ID:       c.ID,
		VideoID:  c.VideoID,
		URL:      c.URL,
		Title:    c.Title,
		Folder:   c.Folder,
		Status:   c.Status,
		Stage:    c.Stage,
		Progress: c.Progress,
		Errors:   store.StringList(c.Errors),
	}
	if err := t.store.SaveResult(ctx, task); err != nil {
		log.WithError(err).WithField("task", id).Warn("cant persist task result")
	}
	for _, f := range c.Files {
		if err := t.store.AddFile(ctx, store.TaskFile{TaskID: id, Name: f.Name, Kind: f.Kind}); err != nil {
			log.WithError(err).WithField("task", id).Warn("cant persist task file")
		}
	}
}

// Get returns the current snapshot of a task. Tasks that fell out of
// memory, after a restart, are rebuilt from the store.
func (t *Tracker) Get(ctx context.Context, id string) (*Snapshot, error) {
	t.mu.RLock()
	if snap, ok := t.tasks[id]; ok {
		c := snap.clone()
		t.mu.RUnlock()
		return c, nil
	}
	t.mu.RUnlock()

	if t.store == nil {
		return nil, errs.ErrTaskNotFound
	}
	task, err := t.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := t.store.TaskFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:       task.ID,
		URL:      task.URL,
		VideoID:  task.VideoID,
		Status:   task.Status,
		Stage:    task.Stage,
		Progress: task.Progress,
		Title:    task.Title,
		Folder:   task.Folder,
		Files:    make([]File, 0, len(files)),
		Errors:   append([]string{}, task.Errors...),
		Done:     task.Status == store.StatusDone,
	}
	for _, f := range files {
		snap.Files = append(snap.Files, File{Name: f.Name, Kind: f.Kind})
	}
	return snap, nil
}

// Recent returns the persisted task history, newest first. Without a
// store there is no history.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]*Snapshot, error) {
	if t.store == nil {
		return []*Snapshot{}, nil
	}
	tasks, err := t.store.RecentTasks(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Snapshot, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, &Snapshot{
			ID:       task.ID,
			URL:      task.URL,
			VideoID:  task.VideoID,
			Status:   task.Status,
			Stage:    task.Stage,
			Progress: task.Progress,
			Title:    task.Title,
			Folder:   task.Folder,
			Files:    []File{},
			Errors:   append([]string{}, task.Errors...),
			Done:     task.Status == store.StatusDone,
		})
	}
	return out, nil
}
