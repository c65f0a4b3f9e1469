package dogewifi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// max counts runes; 802.11 limits an SSID to 32 octets
	if err := validate.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate checks the shape of a request. Secret length rules depend on
// the protocol and are enforced by the connector.
func (r ConnectionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: is required", e.Field()))
		case "required_without":
			msgs = append(msgs, fmt.Sprintf("%s: is required without %s", e.Field(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s]", e.Field(), e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s characters", e.Field(), e.Param()))
		case "maxbytes":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s bytes", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s validation", e.Field(), e.Tag()))
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
