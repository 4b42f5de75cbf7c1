package tasks

import "time"

type CreateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DueDate      string   `json:"dueDate"`
	Priority     Priority `json:"priority"`
	IsUrgent     bool     `json:"isUrgent"`
	Status       Status   `json:"status"`
	ProjectID    int      `json:"projectId"`
	SubprojectID string   `json:"subprojectId"`
	AssignedToID *int     `json:"assignedToId"`
}

// UpdateRequest: nil title, description, status and priority keep the stored
// value. dueDate, isUrgent and assignedToId are always replaced.
type UpdateRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Status       *Status   `json:"status"`
	Priority     *Priority `json:"priority"`
	DueDate      string    `json:"dueDate"`
	IsUrgent     bool      `json:"isUrgent"`
	AssignedToID *int      `json:"assignedToId"`
}

type NewTask struct {
	Title        string
	Description  string
	Status       Status
	Priority     Priority
	DueDate      *time.Time
	IsUrgent     bool
	ProjectID    int
	SubprojectID string
	AssignedToID *int
	CreatorID    int
}

type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	IsUrgent     bool
	AssignedToID *int
}
