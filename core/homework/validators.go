package homework

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/scholium-app/scholium/core"
)

var (
	hwTypeTag  = "hwType"
	hwTypeText = "invalid homework type"

	timeRangeTag  = "timeRange"
	timeRangeText = "end time must be after start time"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(hwTypeTag, hwTypeValidation)
	core.RegisterCustomTranslation(validate, translator, hwTypeTag, hwTypeText)

	validate.RegisterStructValidation(timeRangeStructValidation, NewHomework{}, UpdateHomework{})
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)
}

// hwTypeValidation checks that the provided type is a known one.
func hwTypeValidation(fl validator.FieldLevel) bool {
	typ := fl.Field().String()
	for _, t := range AllTypes {
		if typ == t {
			return true
		}
	}
	return false
}

// timeRangeStructValidation enforces start < end on the optional time window.
// "HH:MM" strings compare correctly lexicographically.
func timeRangeStructValidation(sl validator.StructLevel) {
	switch hw := sl.Current().Interface().(type) {
	case NewHomework:
		if hw.StartTime != "" && hw.EndTime != "" && hw.EndTime <= hw.StartTime {
			sl.ReportError(hw.EndTime, "end_time", "EndTime", timeRangeTag, "")
		}
	case UpdateHomework:
		if hw.StartTime != nil && hw.EndTime != nil && *hw.StartTime != "" && *hw.EndTime != "" && *hw.EndTime <= *hw.StartTime {
			sl.ReportError(*hw.EndTime, "end_time", "EndTime", timeRangeTag, "")
		}
	}
}
