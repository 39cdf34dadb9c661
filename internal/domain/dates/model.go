package dates

import (
	"errors"

	"github.com/google/uuid"
)

var ErrDateNotFound = errors.New("important date not found")

// ImportantDate is a dated marker with no time component.
type ImportantDate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"` // YYYY-MM-DD
	Category string `json:"category"`
}

// NewID mints an important-date id.
func NewID() string {
	return uuid.NewString()
}
