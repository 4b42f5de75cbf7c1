package costs

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

const selectItems = `
	SELECT
		ci.id, ci.item_name, ci.floor_phase, ci.contractor, ci.date,
		ci.estimated_cost, ci.actual_cost, ci.status,
		ci.category_id, ci.project_id, ci.subproject_id, ci.notes, ci.created_at,
		c.name  AS category_name,
		p.title AS project_title,
		s.name  AS subproject_name
	FROM cost_items ci
	JOIN categories c      ON c.id = ci.category_id
	JOIN projects p        ON p.id = ci.project_id
	LEFT JOIN subprojects s ON s.id = ci.subproject_id
`

const selectReports = `
	SELECT
		r.id, r.public_id, r.url, r.original_filename, r.format,
		r.uploaded_by_id, r.project_id, r.subproject_id, r.uploaded_at
	FROM cost_reports r
`

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx, now: time.Now}
}

// page runs the bounded select and the count for one predicate set concurrently.
func page[T any](ctx context.Context, dbx *sqlx.DB, selectSQL, countSQL, order string, set query.Set, p query.Page, now time.Time) ([]T, int, error) {
	where, args := set.Where(now)
	pageArgs := append(append([]any{}, args...), p.Limit(), p.Offset())

	var (
		rows  []T
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dbx.SelectContext(gctx, &rows, dbx.Rebind(selectSQL+where+order+` LIMIT ? OFFSET ?`), pageArgs...)
	})
	g.Go(func() error {
		return dbx.GetContext(gctx, &total, dbx.Rebind(countSQL+where), args...)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, total, nil
}

func (s *Store) ListItems(ctx context.Context, set query.Set, p query.Page) ([]Item, int, error) {
	items, total, err := page[Item](ctx, s.db, selectItems, `SELECT COUNT(*) FROM cost_items ci `,
		` ORDER BY ci.date DESC, ci.id ASC`, set, p, s.now())
	if err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("list cost items: %w", err))
	}
	return items, total, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	var it Item
	err := s.db.GetContext(ctx, &it, s.db.Rebind(selectItems+` WHERE ci.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, apperr.NotFound("cost item not found")
	}
	if err != nil {
		return Item{}, apperr.Storage(fmt.Errorf("get cost item: %w", err))
	}
	return it, nil
}

type itemRow struct {
	ItemName      string
	FloorPhase    string
	Contractor    string
	Date          time.Time
	EstimatedCost decimal.Decimal
	ActualCost    decimal.NullDecimal
	Status        Status
	CategoryID    string
	ProjectID     int
	SubprojectID  *string
	Notes         string
}

func (s *Store) CreateItem(ctx context.Context, in itemRow) (Item, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO cost_items (
			id, item_name, floor_phase, contractor, date,
			estimated_cost, actual_cost, status,
			category_id, project_id, subproject_id, notes, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, in.ItemName, in.FloorPhase, in.Contractor, in.Date.UTC(),
		in.EstimatedCost, in.ActualCost, string(in.Status),
		in.CategoryID, in.ProjectID, in.SubprojectID, in.Notes, s.now().UTC(),
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Item{}, apperr.NotFound("project, subproject or category not found")
		}
		return Item{}, apperr.Storage(fmt.Errorf("insert cost item: %w", err))
	}
	return s.GetItem(ctx, id)
}

// UpdateItem replaces the editable fields. Project and subproject are fixed
// at creation.
func (s *Store) UpdateItem(ctx context.Context, id string, in itemRow) (Item, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE cost_items SET
			item_name      = ?,
			floor_phase    = ?,
			contractor     = ?,
			date           = ?,
			estimated_cost = ?,
			actual_cost    = ?,
			status         = ?,
			category_id    = ?,
			notes          = ?
		WHERE id = ?
	`), in.ItemName, in.FloorPhase, in.Contractor, in.Date.UTC(),
		in.EstimatedCost, in.ActualCost, string(in.Status),
		in.CategoryID, in.Notes, id,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Item{}, apperr.NotFound("category not found")
		}
		return Item{}, apperr.Storage(fmt.Errorf("update cost item: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Item{}, apperr.NotFound("cost item not found")
	}
	return s.GetItem(ctx, id)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM cost_items WHERE id = ?`), id)
	if err != nil {
		return apperr.Storage(fmt.Errorf("delete cost item: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("cost item not found")
	}
	return nil
}

// exists reports whether table has a row with id. table is never user input.
func (s *Store) exists(ctx context.Context, table string, id any) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return false, apperr.Storage(fmt.Errorf("lookup %s: %w", table, err))
	}
	return n > 0, nil
}

func (s *Store) ListReports(ctx context.Context, set query.Set, p query.Page) ([]Report, int, error) {
	reports, total, err := page[Report](ctx, s.db, selectReports, `SELECT COUNT(*) FROM cost_reports r `,
		` ORDER BY r.uploaded_at DESC, r.id ASC`, set, p, s.now())
	if err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("list cost reports: %w", err))
	}
	return reports, total, nil
}

func (s *Store) SaveReport(ctx context.Context, in ReportInput, uploadedBy int) (Report, error) {
	r := Report{
		ID:               uuid.NewString(),
		PublicID:         in.PublicID,
		URL:              in.URL,
		OriginalFilename: in.OriginalFilename,
		Format:           in.Format,
		UploadedByID:     uploadedBy,
		ProjectID:        in.ProjectID,
		SubprojectID:     in.SubprojectID,
		UploadedAt:       s.now().UTC(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO cost_reports (
			id, public_id, url, original_filename, format,
			uploaded_by_id, project_id, subproject_id, uploaded_at
		)
		VALUES (
			:id, :public_id, :url, :original_filename, :format,
			:uploaded_by_id, :project_id, :subproject_id, :uploaded_at
		)
	`, r)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Report{}, apperr.NotFound("project or subproject not found")
		}
		return Report{}, apperr.Storage(fmt.Errorf("insert cost report: %w", err))
	}
	return r, nil
}
