// Package normalization maps free-form user strings onto typed enumerations.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts case- and whitespace-insensitive strings to enum values.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string // sorted, for error messages
}

// NewNormalizer creates a normalizer from string->value pairs. Keys are folded
// the same way inputs are.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := fold(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize returns the matching value, or the default for unknown input.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[fold(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError returns the matching value, or an error naming the valid options.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if value, ok := n.validValues[fold(raw)]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns the accepted spellings.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EnumNormalizer is a Normalizer that names its enum in errors.
type EnumNormalizer[T comparable] struct {
	*Normalizer[T]
	enumName string
}

// NewEnumNormalizer creates an enum normalizer with descriptive error messages.
func NewEnumNormalizer[T comparable](enumName string, values map[string]T, defaultValue T) *EnumNormalizer[T] {
	return &EnumNormalizer[T]{Normalizer: NewNormalizer(values, defaultValue), enumName: enumName}
}

// NormalizeWithValidation is NormalizeWithError with the enum name in the message.
func (e *EnumNormalizer[T]) NormalizeWithValidation(raw string) (T, error) {
	v, err := e.NormalizeWithError(raw)
	if err != nil {
		return v, fmt.Errorf("invalid %s: %w", e.enumName, err)
	}
	return v, nil
}
