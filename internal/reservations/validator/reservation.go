package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	reservationserrors "reservo/internal/reservations/errors"
	"reservo/pkg/calendar"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/go-playground/validator/v10"
)

const windowTag = "reservation_window"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// CheckDate applies the reservation window rule to d relative to now.
// It returns nil, ErrDateInPast or ErrDateTooFar.
func CheckDate(d, now time.Time) error {
	w := calendar.WindowAt(now)
	day := calendar.StartOfDay(d.In(now.Location()))
	if day.Before(w.Min) {
		return reservationserrors.ErrDateInPast
	}
	if day.After(w.Max) {
		return reservationserrors.ErrDateTooFar
	}
	return nil
}

type ReservationValidator struct {
	validate *validator.Validate
	clock    calendar.Clock
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger, clock calendar.Clock) *ReservationValidator {
	if clock == nil {
		clock = time.Now
	}
	v := validator.New()
	rv := &ReservationValidator{
		validate: v,
		clock:    clock,
		logger:   log,
	}

	if err := v.RegisterValidation(windowTag, rv.validateWindow); err != nil {
		log.Fatal("Failed to register 'reservation_window' validator",
			"error", err,
		)
	}

	log.Debug("Reservation validator initialized successfully")
	return rv
}

func (v *ReservationValidator) validateWindow(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return CheckDate(d, v.clock()) == nil
}

// Window is the range the date picker should offer. It is derived from the
// same rule Validate enforces.
func (v *ReservationValidator) Window() calendar.Window {
	return calendar.WindowAt(v.clock())
}

// ValidateDate checks a single candidate date and surfaces the inline message
// for the date control.
func (v *ReservationValidator) ValidateDate(d time.Time) error {
	if err := CheckDate(d, v.clock()); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Date",
				Message: err.Error(),
			},
		}
	}
	return nil
}

func (v *ReservationValidator) Validate(req *model.ReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs, req)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) ValidateBody(body *model.CreateReservationBody) error {
	if err := v.validate.Struct(body); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs, nil)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) ValidateReservation(r *model.Reservation) error {
	if err := v.validate.Struct(r); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs, nil)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors, req *model.ReservationRequest) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case windowTag:
			if req != nil {
				if reason := CheckDate(req.Date, v.clock()); reason != nil {
					message = reason.Error()
				}
			}
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
