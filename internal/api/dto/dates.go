package dto

import "github.com/ewellner/daybridge/internal/domain/dates"

// CreateImportantDateRequest represents the request to create a new
// important date
type CreateImportantDateRequest struct {
	Title    string `json:"title" binding:"required"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Category string `json:"category"`
}

func (r *CreateImportantDateRequest) ToDate() dates.ImportantDate {
	return dates.ImportantDate{
		Title:    r.Title,
		Date:     r.Date,
		Category: r.Category,
	}
}

// UpdateImportantDateRequest represents the request to update an important
// date; empty fields keep their current values
type UpdateImportantDateRequest struct {
	Title    string `json:"title"`
	Date     string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Category string `json:"category"`
}

func (r *UpdateImportantDateRequest) ToDate() dates.ImportantDate {
	return dates.ImportantDate{
		Title:    r.Title,
		Date:     r.Date,
		Category: r.Category,
	}
}

// DateListResponse represents the response for listing important dates
type DateListResponse struct {
	Dates      []dates.ImportantDate `json:"dates"`
	TotalCount int                   `json:"total_count"`
}
