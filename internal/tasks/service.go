package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/cache"
	"buildboard-backend/internal/query"
)

const (
	DefaultPageSize = 10
	DefaultCacheTTL = 60 * time.Second
	cachePrefix     = "tasks"
)

// Service runs the list pipeline: gate, predicates, page, cache, storage.
type Service struct {
	store    *Store
	cache    cache.Cache
	ttl      time.Duration
	pageSize int
	loc      *time.Location
	now      func() time.Time
}

type Option func(*Service)

func WithCacheTTL(ttl time.Duration) Option { return func(s *Service) { s.ttl = ttl } }

func WithPageSize(n int) Option { return func(s *Service) { s.pageSize = n } }

func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.store.now = now
	}
}

func NewService(store *Store, c cache.Cache, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cache:    c,
		ttl:      DefaultCacheTTL,
		pageSize: DefaultPageSize,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) PageSize() int { return s.pageSize }

// List returns the encoded page and whether it came from the cache. A cached
// body is returned byte for byte with "cached":true appended.
func (s *Service) List(ctx context.Context, claims *auth.Claims, opts Options, page query.Page) ([]byte, bool, error) {
	if err := auth.Authorize(claims, ""); err != nil {
		return nil, false, err
	}

	set := BuildPredicates(opts, claims)

	key, err := query.Key(cachePrefix, set, page.Offset(), page.Limit())
	if err != nil {
		return nil, false, apperr.Storage(fmt.Errorf("cache key: %w", err))
	}

	if s.cache != nil {
		if body, ok := s.cache.Get(ctx, key); ok {
			return markCached(body), true, nil
		}
	}

	rows, total, err := s.store.List(ctx, set, page, s.now())
	if err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(ListResult{
		Tasks:      rows,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit(),
		TotalPages: page.TotalPages(total),
	})
	if err != nil {
		return nil, false, apperr.Storage(fmt.Errorf("encode tasks: %w", err))
	}

	if s.cache != nil {
		s.cache.Put(ctx, key, body, s.ttl)
	}
	return body, false, nil
}

// Get returns one task. Callers who are not ADMIN only see their own.
func (s *Service) Get(ctx context.Context, claims *auth.Claims, id string) (Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !claims.IsAdmin() && t.CreatorID != claims.UserID {
		return Task{}, apperr.NotFound("task not found")
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, claims *auth.Claims, req CreateRequest) (Task, error) {
	if req.Title == "" || req.ProjectID == 0 || req.SubprojectID == "" {
		return Task{}, apperr.InvalidInput("title, projectId and subprojectId are required")
	}

	in := NewTask{
		Title:        req.Title,
		Description:  req.Description,
		Status:       StatusPending,
		Priority:     PriorityMedium,
		IsUrgent:     req.IsUrgent,
		ProjectID:    req.ProjectID,
		SubprojectID: req.SubprojectID,
		AssignedToID: positiveOrNil(req.AssignedToID),
		CreatorID:    claims.UserID,
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return Task{}, apperr.InvalidInput("invalid status")
		}
		in.Status = req.Status
	}
	if req.Priority != "" {
		if !req.Priority.Valid() {
			return Task{}, apperr.InvalidInput("invalid priority")
		}
		in.Priority = req.Priority
	}
	if req.DueDate != "" {
		due, ok := query.ParseDate(req.DueDate, s.loc)
		if !ok {
			return Task{}, apperr.InvalidInput("invalid dueDate")
		}
		in.DueDate = &due
	}

	return s.store.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, claims *auth.Claims, id string, req UpdateRequest) (Task, error) {
	if _, err := s.Get(ctx, claims, id); err != nil {
		return Task{}, err
	}

	upd := TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		IsUrgent:     req.IsUrgent,
		AssignedToID: positiveOrNil(req.AssignedToID),
	}
	if req.Title != nil && *req.Title == "" {
		return Task{}, apperr.InvalidInput("title must not be empty")
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return Task{}, apperr.InvalidInput("invalid status")
		}
		upd.Status = req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return Task{}, apperr.InvalidInput("invalid priority")
		}
		upd.Priority = req.Priority
	}
	if req.DueDate != "" {
		due, ok := query.ParseDate(req.DueDate, s.loc)
		if !ok {
			return Task{}, apperr.InvalidInput("invalid dueDate")
		}
		upd.DueDate = &due
	}

	return s.store.Update(ctx, id, upd)
}

func positiveOrNil(id *int) *int {
	if id == nil || *id <= 0 {
		return nil
	}
	return id
}

func markCached(body []byte) []byte {
	body = bytes.TrimRight(body, " \n")
	if len(body) < 2 || body[len(body)-1] != '}' {
		return body
	}
	out := make([]byte, 0, len(body)+len(`,"cached":true`))
	out = append(out, body[:len(body)-1]...)
	out = append(out, `,"cached":true}`...)
	return out
}
