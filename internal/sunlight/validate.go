package sunlight

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// recordInvariants mirrors the constraints every stored record must satisfy.
type recordInvariants struct {
	Latitude  float64       `validate:"gte=-90,lte=90"`
	Longitude float64       `validate:"gte=-180,lte=180"`
	StartDate time.Time     `validate:"required"`
	EndDate   time.Time     `validate:"required,gtfield=StartDate"`
	Data      []DailyRecord `validate:"required,min=1"`
}

// queryInvariants is recordInvariants without the data requirement.
type queryInvariants struct {
	Latitude  float64   `validate:"gte=-90,lte=90"`
	Longitude float64   `validate:"gte=-180,lte=180"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

var fieldNames = map[string]string{
	"Latitude":  "latitude",
	"Longitude": "longitude",
	"StartDate": "start_date",
	"EndDate":   "end_date",
	"Data":      "data",
}

// ValidateRecord enforces the write-time invariants of a HistoricalInformation.
// All stores call it before persisting.
func ValidateRecord(q Query, data []DailyRecord) error {
	return validateInvariants(q, data, true)
}

func validateInvariants(q Query, data []DailyRecord, withData bool) error {
	var subject any
	if withData {
		subject = recordInvariants{
			Latitude:  q.Latitude.InexactFloat64(),
			Longitude: q.Longitude.InexactFloat64(),
			StartDate: q.StartDate,
			EndDate:   q.EndDate,
			Data:      data,
		}
	} else {
		subject = queryInvariants{
			Latitude:  q.Latitude.InexactFloat64(),
			Longitude: q.Longitude.InexactFloat64(),
			StartDate: q.StartDate,
			EndDate:   q.EndDate,
		}
	}

	err := validate.Struct(subject)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Violations = append(verr.Violations, Violation{
			Field:   fieldNames[fe.Field()],
			Message: violationMessage(fe),
		})
	}
	return verr
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Latitude":
		return "must be between -90 and 90"
	case "Longitude":
		return "must be between -180 and 180"
	case "EndDate":
		if fe.Tag() == "gtfield" {
			return "must be after start date"
		}
	}
	return "can't be blank"
}
