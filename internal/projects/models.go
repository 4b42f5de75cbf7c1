package projects

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPageSize = 6

type Project struct {
	ID              int             `db:"id" json:"id"`
	Title           string          `db:"title" json:"title"`
	Location        string          `db:"location" json:"location"`
	StartDate       *time.Time      `db:"start_date" json:"startDate"`
	ExpectedEndDate *time.Time      `db:"expected_end_date" json:"expectedEndDate"`
	Budget          decimal.Decimal `db:"budget" json:"budget"`
	Image           string          `db:"image" json:"image"`
	UserID          *int            `db:"user_id" json:"userId"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// Detail is a project with its subprojects and milestones.
type Detail struct {
	Project
	Subprojects []Subproject `json:"subprojects"`
	Milestones  []Milestone  `json:"milestones"`
}

type List struct {
	Projects   []Project `json:"projects"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

type Subproject struct {
	ID        string    `db:"id" json:"id"`
	ProjectID int       `db:"project_id" json:"projectId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Milestone struct {
	ID        int       `db:"id" json:"id"`
	ProjectID int       `db:"project_id" json:"projectId"`
	Title     string    `db:"title" json:"title"`
	DueDate   time.Time `db:"due_date" json:"dueDate"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type ProjectInput struct {
	Title           string           `json:"title"`
	Location        string           `json:"location"`
	StartDate       string           `json:"startDate"`
	ExpectedEndDate string           `json:"expectedEndDate"`
	Budget          *decimal.Decimal `json:"budget"`
	Image           string           `json:"image"`
}

type SubprojectInput struct {
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	ProjectID int    `json:"projectId"`
}

type MilestoneInput struct {
	Title     string `json:"title"`
	DueDate   string `json:"dueDate"`
	Status    string `json:"status"`
	ProjectID int    `json:"projectId"`
}
