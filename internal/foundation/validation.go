// Package foundation holds small generic building blocks shared across packages.
package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

// Validator represents a validation function.
type Validator[T any] func(T) ValidationResult

// ValidationResult contains the result of a validation operation.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errors ...FieldError) ValidationResult {
	return ValidationResult{
		Valid:  false,
		Errors: errors,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(field, code, message string) FieldError {
	return FieldError{
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// Combine merges multiple validation results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}

	var allErrors []FieldError
	allErrors = append(allErrors, vr.Errors...)
	allErrors = append(allErrors, other.Errors...)

	return Invalid(allErrors...)
}

// ToError converts a validation result to a validation error if invalid.
func (vr ValidationResult) ToError() error {
	return vr.ToErrorAs(errors.CategoryValidation)
}

// ToErrorAs converts a validation result to an error of the given category if invalid.
func (vr ValidationResult) ToErrorAs(category errors.ErrorCategory) error {
	if vr.Valid {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, err.Error())
	}

	return errors.NewError(category, strings.Join(messages, "; ")).
		WithContext("fields", len(vr.Errors)).
		Build()
}

// ValidatorChain allows chaining multiple validators.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()

	for _, validator := range vc.validators {
		result = result.Combine(validator(value))
	}

	return result
}

// OneOf validates that a value is in a set of allowed values.
func OneOf[T comparable](field string, allowed []T) Validator[T] {
	allowedSet := make(map[T]bool, len(allowed))
	for _, item := range allowed {
		allowedSet[item] = true
	}

	return func(value T) ValidationResult {
		if !allowedSet[value] {
			return Invalid(NewValidationError(
				field,
				"one_of",
				fmt.Sprintf("field must be one of: %v", allowed),
			))
		}
		return Valid()
	}
}

// Ordered is the set of types InRange accepts.
type Ordered interface {
	~int | ~int64 | ~float64
}

// InRange validates min <= value <= max.
func InRange[T Ordered](field string, minValue, maxValue T) Validator[T] {
	return func(value T) ValidationResult {
		if value < minValue || value > maxValue {
			return Invalid(FieldError{
				Field:   field,
				Code:    "range",
				Message: fmt.Sprintf("must be between %v and %v", minValue, maxValue),
				Value:   value,
			})
		}
		return Valid()
	}
}

// Positive validates value > 0.
func Positive[T Ordered](field string) Validator[T] {
	return func(value T) ValidationResult {
		if value <= 0 {
			return Invalid(FieldError{Field: field, Code: "positive", Message: "must be greater than zero", Value: value})
		}
		return Valid()
	}
}

// NotBlank validates that a string has non-whitespace content.
func NotBlank(field string) Validator[string] {
	return func(value string) ValidationResult {
		if strings.TrimSpace(value) == "" {
			return Invalid(NewValidationError(field, "required", "must not be empty"))
		}
		return Valid()
	}
}

// Field lifts a validator over a part of a larger value.
func Field[T, F any](get func(T) F, v Validator[F]) Validator[T] {
	return func(value T) ValidationResult {
		return v(get(value))
	}
}
