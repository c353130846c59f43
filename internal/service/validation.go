package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/punch-attendance/internal/models"
)

// RegisterValidators installs the domain tags used by request DTOs:
// employment_category accepts Full-Time/Part-Time in any case, report_format accepts csv/xlsx/pdf.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("employment_category", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("report_format", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseReportFormat(fl.Field().String())
		return ok
	})
}
