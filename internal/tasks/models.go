package tasks

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusOnHold     Status = "ON_HOLD"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusOnHold:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is the list read-model with the names of its related rows.
type Task struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Status       Status     `db:"status" json:"status"`
	Priority     Priority   `db:"priority" json:"priority"`
	DueDate      *time.Time `db:"due_date" json:"dueDate"`
	IsUrgent     bool       `db:"is_urgent" json:"isUrgent"`
	ProjectID    int        `db:"project_id" json:"projectId"`
	SubprojectID string     `db:"subproject_id" json:"subprojectId"`
	AssignedToID *int       `db:"assigned_to_id" json:"assignedToId"`
	CreatorID    int        `db:"creator_id" json:"creatorId"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`

	ProjectTitle   string  `db:"project_title" json:"projectTitle"`
	SubprojectName string  `db:"subproject_name" json:"subprojectName"`
	AssignedToName *string `db:"assigned_to_name" json:"assignedToName"`
	CreatorName    string  `db:"creator_name" json:"creatorName"`
}

// ListResult is what GET /api/tasks returns and what the cache stores.
type ListResult struct {
	Tasks      []Task `json:"tasks"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}
