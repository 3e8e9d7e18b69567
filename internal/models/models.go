// package models defines the data model for the result publication pipeline
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Model defines the base interface for persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// validateStruct runs the shared validator and flattens field errors into a single
// [shared.ErrInvalidInput] error naming every failed field.
func validateStruct(v any) error {
	err := shared.Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(msgs, "; "))
}
