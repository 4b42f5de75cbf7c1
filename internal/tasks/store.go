package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/db"
	"buildboard-backend/internal/query"
)

const selectTasks = `
	SELECT
		t.id, t.title, t.description, t.status, t.priority,
		t.due_date, t.is_urgent,
		t.project_id, t.subproject_id, t.assigned_to_id, t.creator_id,
		t.created_at, t.updated_at,
		p.title AS project_title,
		s.name  AS subproject_name,
		a.name  AS assigned_to_name,
		c.name  AS creator_name
	FROM tasks t
	JOIN projects p    ON p.id = t.project_id
	JOIN subprojects s ON s.id = t.subproject_id
	LEFT JOIN users a  ON a.id = t.assigned_to_id
	JOIN users c       ON c.id = t.creator_id
`

// undated tasks sort last; id keeps pages stable
const orderTasks = ` ORDER BY t.due_date IS NULL, t.due_date ASC, t.id ASC`

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx, now: time.Now}
}

// List returns one page of tasks matching set and the total match count.
// Both reads run concurrently against the same compiled predicates.
func (s *Store) List(ctx context.Context, set query.Set, page query.Page, now time.Time) ([]Task, int, error) {
	where, args := set.Where(now)

	pageSQL := s.db.Rebind(selectTasks + where + orderTasks + ` LIMIT ? OFFSET ?`)
	pageArgs := append(append([]any{}, args...), page.Limit(), page.Offset())
	countSQL := s.db.Rebind(`SELECT COUNT(*) FROM tasks t ` + where)

	var (
		rows  []Task
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.SelectContext(gctx, &rows, pageSQL, pageArgs...); err != nil {
			return fmt.Errorf("select tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.GetContext(gctx, &total, countSQL, args...); err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	if rows == nil {
		rows = []Task{}
	}
	return rows, total, nil
}

func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	var t Task
	err := s.db.GetContext(ctx, &t, s.db.Rebind(selectTasks+` WHERE t.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return Task{}, apperr.Storage(fmt.Errorf("get task: %w", err))
	}
	return t, nil
}

func (s *Store) Create(ctx context.Context, in NewTask) (Task, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO tasks (
			id, title, description, status, priority,
			due_date, is_urgent,
			project_id, subproject_id, assigned_to_id, creator_id,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, in.Title, in.Description, in.Status, in.Priority,
		utcOrNil(in.DueDate), in.IsUrgent,
		in.ProjectID, in.SubprojectID, in.AssignedToID, in.CreatorID,
		now, now,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Task{}, apperr.NotFound("project, subproject or user not found")
		}
		return Task{}, apperr.Storage(fmt.Errorf("insert task: %w", err))
	}

	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id string, upd TaskUpdate) (Task, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks SET
			title          = COALESCE(?, title),
			description    = COALESCE(?, description),
			status         = COALESCE(?, status),
			priority       = COALESCE(?, priority),
			due_date       = ?,
			is_urgent      = ?,
			assigned_to_id = ?,
			updated_at     = ?
		WHERE id = ?
	`), upd.Title, upd.Description, nullable(upd.Status), nullable(upd.Priority),
		utcOrNil(upd.DueDate), upd.IsUrgent, upd.AssignedToID,
		s.now().UTC(), id,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Task{}, apperr.NotFound("assigned user not found")
		}
		return Task{}, apperr.Storage(fmt.Errorf("update task: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, apperr.NotFound("task not found")
	}

	return s.Get(ctx, id)
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullable[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}
