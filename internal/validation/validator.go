// Package validation checks HTTP request bodies before they reach the
// wallet service.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"walletledger/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Decimal places accepted for amounts and interest rates.
const (
	MaxAmountScale = models.AmountScale
	MaxRateScale   = models.RateScale
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive() && models.FitsScale(d, MaxAmountScale)
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && models.FitsScale(d, MaxAmountScale)
	})
	_ = v.RegisterValidation("rate", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && models.FitsScale(d, MaxRateScale)
	})
	return v
}

// Errors maps a JSON field name to what is wrong with it.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Struct validates s and returns nil or an Errors value.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return fmt.Sprintf("must be a positive decimal with at most %d places", MaxAmountScale)
	case "decimal":
		return fmt.Sprintf("must be a non-negative decimal with at most %d places", MaxAmountScale)
	case "rate":
		return fmt.Sprintf("must be a non-negative percentage with at most %d places", MaxRateScale)
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	default:
		return "is invalid"
	}
}
