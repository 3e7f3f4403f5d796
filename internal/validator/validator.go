// Package validator provides the field validators shared by Gin's binding engine
// and the service layer. Validation short-circuits: only the first failing field
// is reported.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/uuid"
)

// DateLayout is the accepted format for date fields.
const DateLayout = "2006-01-02"

var (
	hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

	// MaxAmount is the largest amount that fits a numeric(12,2) column.
	MaxAmount = decimal.RequireFromString("9999999999.99")

	engine     *validator.Validate
	engineOnce sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

// Struct validates s against its binding tags and returns a ValidationFailed
// AppError naming the first failing field.
func Struct(s any) error {
	if err := get().Struct(s); err != nil {
		return FromBindingError(err)
	}
	return nil
}

// FromBindingError converts an error from Gin binding or Struct into an AppError.
// Malformed JSON and type mismatches are reported without field detail.
func FromBindingError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, fieldMessage(fieldErrs[0]))
	}
	return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrValidation, "Invalid request body"), err)
}

func get() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New()
		engine.SetTagName("binding")
		configure(engine)
	})
	return engine
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("uuid_canonical", validateUUID)
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("email_address", validateEmail)
}

// decimalValue lets tags such as required and amount see decimals as their
// canonical string form.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateUUID(fl validator.FieldLevel) bool {
	return uuid.IsCanonical(fl.Field().String())
}

func validateDate(fl validator.FieldLevel) bool {
	return IsDate(fl.Field().String())
}

func validateAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return IsAmount(d)
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateEmail(fl validator.FieldLevel) bool {
	return checkmail.ValidateFormat(fl.Field().String()) == nil
}

// IsDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsAmount reports whether d is positive, at most MaxAmount and has no more
// than two decimal places.
func IsAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThanOrEqual(MaxAmount) && d.Equal(d.Round(2))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid_canonical":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "date":
		return fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", field)
	case "amount":
		return fmt.Sprintf("%s must be greater than 0 and at most %s with at most 2 decimal places", field, MaxAmount.StringFixed(2))
	case "hex_color":
		return fmt.Sprintf("%s must be a hex color such as #1A2B3C", field)
	case "email_address":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
