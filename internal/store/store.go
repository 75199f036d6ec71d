package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/tubetool/internal/errs"
	"github.com/iamwavecut/tubetool/resources"
)

// Task statuses as they appear on the wire and in the database.
const (
	StatusStarting   = "iniciando"
	StatusProcessing = "processando"
	StatusDone       = "concluido"
	StatusError      = "erro"
)

// Task origins: the surface that accepted the job.
const (
	OriginWeb      = "web"
	OriginTelegram = "telegram"
	OriginCLI      = "cli"
)

// StringList stores a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(v interface{}) error {
	if v == nil {
		*l = nil
		return nil
	}
	switch data := v.(type) {
	case string:
		return json.Unmarshal([]byte(data), l)
	case []byte:
		return json.Unmarshal(data, l)
	default:
		return fmt.Errorf("cannot scan type %T into StringList", v)
	}
}

type (
	Task struct {
		ID        string     `db:"id"`
		VideoID   string     `db:"video_id"`
		URL       string     `db:"url"`
		Title     string     `db:"title"`
		Folder    string     `db:"folder"`
		Origin    string     `db:"origin"`
		Status    string     `db:"status"`
		Stage     string     `db:"stage"`
		Progress  int        `db:"progress"`
		Errors    StringList `db:"errors"`
		CreatedAt time.Time  `db:"created_at"`
		UpdatedAt time.Time  `db:"updated_at"`
	}

	TaskFile struct {
		TaskID string `db:"task_id"`
		Name   string `db:"name"`
		Kind   string `db:"kind"`
	}
)

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, dbPath string) (*Store, error) {
	dbx, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "cant open db")
	}
	dbx.SetMaxOpenConns(42)
	if err := dbx.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "cant ping db")
	}

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	if _, _, err := migrate.PlanMigration(dbx.DB, "sqlite3", migrationsSource, migrate.Up, 0); err != nil {
		return nil, errors.Wrap(err, "migrate plan failed")
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, errors.Wrap(err, "migrate up failed")
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &Store{db: dbx}, nil
}

func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = StatusStarting
	}
	if !tool.In(task.Origin, OriginWeb, OriginTelegram, OriginCLI) {
		task.Origin = OriginWeb
	}
	if task.Errors == nil {
		task.Errors = StringList{}
	}
	query := `
		INSERT INTO tasks (id, video_id, url, title, folder, origin, status, stage, progress, errors, created_at, updated_at)
		VALUES (:id, :video_id, :url, :title, :folder, :origin, :status, :stage, :progress, :errors, :created_at, :updated_at);
	`
	_, err := s.db.NamedExecContext(ctx, query, task)
	return errors.Wrap(err, "cant insert task")
}

func (s *Store) UpdateProgress(ctx context.Context, id, status, stage string, progress int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, stage = ?, progress = ?, updated_at = ? WHERE id = ?",
		status, stage, progress, time.Now().UTC(), id)
	return errors.Wrap(err, "cant update task progress")
}

func (s *Store) SaveResult(ctx context.Context, task *Task) error {
	task.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE tasks SET
			title = :title,
			folder = :folder,
			status = :status,
			stage = :stage,
			progress = :progress,
			errors = :errors,
			updated_at = :updated_at
		WHERE id = :id;
	`
	_, err := s.db.NamedExecContext(ctx, query, task)
	return errors.Wrap(err, "cant save task result")
}

func (s *Store) AddFile(ctx context.Context, file TaskFile) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_files (task_id, name, kind) VALUES (?, ?, ?)",
		file.TaskID, file.Name, file.Kind)
	return errors.Wrap(err, "cant insert task file")
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	task := &Task{}
	err := s.db.GetContext(ctx, task,
		"SELECT id, video_id, url, title, folder, origin, status, stage, progress, errors, created_at, updated_at FROM tasks WHERE id = ?",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrTaskNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "cant get task")
	}
	return task, nil
}

func (s *Store) TaskFiles(ctx context.Context, taskID string) ([]TaskFile, error) {
	var files []TaskFile
	err := s.db.SelectContext(ctx, &files,
		"SELECT task_id, name, kind FROM task_files WHERE task_id = ? ORDER BY rowid",
		taskID)
	return files, errors.Wrap(err, "cant select task files")
}

func (s *Store) RecentTasks(ctx context.Context, limit int) ([]Task, error) {
	var tasks []Task
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT id, video_id, url, title, folder, origin, status, stage, progress, errors, created_at, updated_at FROM tasks ORDER BY created_at DESC, id LIMIT ?",
		limit)
	return tasks, errors.Wrap(err, "cant select recent tasks")
}

func (s *Store) Close() error {
	return s.db.Close()
}
