package costs

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusPaid      Status = "Paid"
	StatusOnHold    Status = "OnHold"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

type Item struct {
	ID            string              `db:"id" json:"id"`
	ItemName      string              `db:"item_name" json:"itemName"`
	FloorPhase    string              `db:"floor_phase" json:"floorPhase"`
	Contractor    string              `db:"contractor" json:"contractor"`
	Date          time.Time           `db:"date" json:"date"`
	EstimatedCost decimal.Decimal     `db:"estimated_cost" json:"estimatedCost"`
	ActualCost    decimal.NullDecimal `db:"actual_cost" json:"actualCost"`
	Status        Status              `db:"status" json:"status"`
	CategoryID    string              `db:"category_id" json:"categoryId"`
	ProjectID     int                 `db:"project_id" json:"projectId"`
	SubprojectID  *string             `db:"subproject_id" json:"subprojectId"`
	Notes         string              `db:"notes" json:"notes"`
	CreatedAt     time.Time           `db:"created_at" json:"createdAt"`

	CategoryName   string  `db:"category_name" json:"categoryName"`
	ProjectTitle   string  `db:"project_title" json:"projectTitle"`
	SubprojectName *string `db:"subproject_name" json:"subprojectName"`
}

type ItemList struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// ItemInput is the body of POST /api/cost-entry and PUT /api/costboard/{id}.
type ItemInput struct {
	ItemName      string              `json:"itemName"`
	FloorPhase    string              `json:"floorPhase"`
	Contractor    string              `json:"contractor"`
	Date          string              `json:"date"`
	EstimatedCost *decimal.Decimal    `json:"estimatedCost"`
	ActualCost    decimal.NullDecimal `json:"actualCost"`
	Status        Status              `json:"status"`
	CategoryID    string              `json:"categoryId"`
	ProjectID     int                 `json:"projectId"`
	SubprojectID  string              `json:"subprojectId"`
	Notes         string              `json:"notes"`
}

type Report struct {
	ID               string    `db:"id" json:"id"`
	PublicID         string    `db:"public_id" json:"publicId"`
	URL              string    `db:"url" json:"url"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	Format           string    `db:"format" json:"format"`
	UploadedByID     int       `db:"uploaded_by_id" json:"uploadedById"`
	ProjectID        int       `db:"project_id" json:"projectId"`
	SubprojectID     string    `db:"subproject_id" json:"subprojectId"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploadedAt"`
}

type ReportList struct {
	Reports    []Report `json:"reports"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// ReportInput carries metadata of a file already uploaded to media storage.
type ReportInput struct {
	PublicID         string `json:"public_id"`
	URL              string `json:"url"`
	OriginalFilename string `json:"original_filename"`
	Format           string `json:"format"`
	ProjectID        int    `json:"projectId"`
	SubprojectID     string `json:"subprojectId"`
}
