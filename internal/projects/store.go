package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/db"
	"buildboard-backend/internal/query"
)

const selectProjects = `
	SELECT id, title, location, start_date, expected_end_date, budget, image, user_id, created_at
	FROM projects
`

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx, now: time.Now}
}

// List pages projects newest first.
func (s *Store) List(ctx context.Context, p query.Page) ([]Project, int, error) {
	var (
		rows  []Project
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.SelectContext(gctx, &rows,
			s.db.Rebind(selectProjects+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`),
			p.Limit(), p.Offset())
	})
	g.Go(func() error {
		return s.db.GetContext(gctx, &total, `SELECT COUNT(*) FROM projects`)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("list projects: %w", err))
	}
	if rows == nil {
		rows = []Project{}
	}
	return rows, total, nil
}

func (s *Store) Get(ctx context.Context, id int) (Detail, error) {
	var d Detail
	err := s.db.GetContext(ctx, &d.Project, s.db.Rebind(selectProjects+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Detail{}, apperr.NotFound("project not found")
	}
	if err != nil {
		return Detail{}, apperr.Storage(fmt.Errorf("get project: %w", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Subprojects, err = s.subprojects(gctx, id)
		return err
	})
	g.Go(func() error {
		return s.db.SelectContext(gctx, &d.Milestones, s.db.Rebind(`
			SELECT id, project_id, title, due_date, status, created_at
			FROM milestones
			WHERE project_id = ?
			ORDER BY due_date ASC, id ASC
		`), id)
	})
	if err := g.Wait(); err != nil {
		return Detail{}, apperr.Storage(fmt.Errorf("get project children: %w", err))
	}
	if d.Milestones == nil {
		d.Milestones = []Milestone{}
	}
	return d, nil
}

type projectRow struct {
	Title           string
	Location        string
	StartDate       *time.Time
	ExpectedEndDate *time.Time
	Budget          decimal.Decimal
	Image           string
	UserID          int
}

func (s *Store) Create(ctx context.Context, in projectRow) (Detail, error) {
	var id int
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`
		INSERT INTO projects (title, location, start_date, expected_end_date, budget, image, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), in.Title, in.Location, utcOrNil(in.StartDate), utcOrNil(in.ExpectedEndDate),
		in.Budget, in.Image, in.UserID, s.now().UTC(),
	)
	if err != nil {
		return Detail{}, apperr.Storage(fmt.Errorf("insert project: %w", err))
	}
	return s.Get(ctx, id)
}

func (s *Store) subprojects(ctx context.Context, projectID int) ([]Subproject, error) {
	var rows []Subproject
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, project_id, name, created_at
		FROM subprojects
		WHERE project_id = ?
		ORDER BY created_at DESC, id ASC
	`), projectID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Subproject{}
	}
	return rows, nil
}

func (s *Store) ListSubprojects(ctx context.Context, projectID int) ([]Subproject, error) {
	rows, err := s.subprojects(ctx, projectID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list subprojects: %w", err))
	}
	return rows, nil
}

func (s *Store) CreateSubproject(ctx context.Context, projectID int, name string, createdAt time.Time) (Subproject, error) {
	sp := Subproject{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: createdAt.UTC(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO subprojects (id, project_id, name, created_at)
		VALUES (:id, :project_id, :name, :created_at)
	`, sp)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Subproject{}, apperr.NotFound("project not found")
		}
		return Subproject{}, apperr.Storage(fmt.Errorf("insert subproject: %w", err))
	}
	return sp, nil
}

func (s *Store) CreateMilestone(ctx context.Context, projectID int, title string, due time.Time, status string) (Milestone, error) {
	m := Milestone{
		ProjectID: projectID,
		Title:     title,
		DueDate:   due.UTC(),
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	err := s.db.GetContext(ctx, &m.ID, s.db.Rebind(`
		INSERT INTO milestones (project_id, title, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), m.ProjectID, m.Title, m.DueDate, m.Status, m.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Milestone{}, apperr.NotFound("project not found")
		}
		return Milestone{}, apperr.Storage(fmt.Errorf("insert milestone: %w", err))
	}
	return m, nil
}

func (s *Store) UpdateMilestoneStatus(ctx context.Context, id int, status string) (Milestone, error) {
	var m Milestone
	err := s.db.GetContext(ctx, &m, s.db.Rebind(`
		UPDATE milestones SET status = ?
		WHERE id = ?
		RETURNING id, project_id, title, due_date, status, created_at
	`), status, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Milestone{}, apperr.NotFound("milestone not found")
	}
	if err != nil {
		return Milestone{}, apperr.Storage(fmt.Errorf("update milestone: %w", err))
	}
	return m, nil
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
