package dto

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ewellner/daybridge/internal/domain/calendar"
)

var durationPattern = regexp.MustCompile(`^\d+h(\s*\d+m)?$|^\d+m$`)

// validEventDuration accepts display durations: "2h", "30m", "1h 30m" or
// the all-day literal.
func validEventDuration(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if strings.EqualFold(s, calendar.AllDayDuration) {
		return true
	}
	return durationPattern.MatchString(s)
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("eventduration", validEventDuration)
	}
}
