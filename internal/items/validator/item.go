package validator

import (
	"errors"
	"fmt"
	"strings"

	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/go-playground/validator/v10"
)

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

type ItemValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewItemValidator(log *logger.Logger) *ItemValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	log.Info("Item validator initialized successfully")

	return &ItemValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ItemValidator) ValidateCreate(req *model.CreateItemRequest) error {
	return v.check(v.validate.Struct(req), "")
}

func (v *ItemValidator) ValidateRename(req *model.RenameItemRequest) error {
	return v.check(v.validate.Struct(req), "")
}

func (v *ItemValidator) ValidateShare(req *model.ShareRequest) error {
	return v.check(v.validate.Struct(req), "")
}

func (v *ItemValidator) ValidateImmediate(req *model.ImmediateReservationRequest) error {
	return v.check(v.validate.Struct(req), "")
}

func (v *ItemValidator) ValidateScheduled(req *model.ScheduledReservationRequest) error {
	return v.check(v.validate.Struct(req), "")
}

func (v *ItemValidator) ValidateIdentity(identity string) error {
	return v.check(v.validate.Var(identity, "required,email"), "Identity")
}

func (v *ItemValidator) ValidateID(id string) error {
	return v.check(v.validate.Var(id, "required,uuid"), "ID")
}

// check translates validator errors. field names single-value checks,
// which carry no field name of their own.
func (v *ItemValidator) check(err error, field string) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs, field)
	}
	return err
}

func (v *ItemValidator) translateValidationErrors(errs validator.ValidationErrors, field string) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		name := err.Field()
		if field != "" {
			name = field
		}
		message := fmt.Sprintf("%s failed on %s", name, err.Tag())

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", name)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", name, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", name, err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", name)
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", name)
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", name, err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   name,
			Message: message,
		})
	}

	return validationErrors
}
