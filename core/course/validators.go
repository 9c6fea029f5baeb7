package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	weekdaysTag  = "weekdays"
	weekdaysText = "invalid or duplicate weekdays"
)

// InitValidators registers course validators. Call after core.InitValidators.
func InitValidators() {
	_ = core.Validate.RegisterValidation(weekdaysTag, weekdaysValidation)
	core.RegisterCustomTranslation(weekdaysTag, weekdaysText)
}

// weekdaysValidation checks that class days form a set of valid weekdays.
func weekdaysValidation(fl validator.FieldLevel) bool {
	days, ok := fl.Field().Interface().([]time.Weekday)
	if !ok {
		return false
	}
	seen := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}
