package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var sourceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// ProductID identifies a product within one upstream catalog.
type ProductID string

// NewProductID validates and wraps a raw product identifier.
func NewProductID(raw string) (ProductID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: empty product id", ErrInvalidID)
	}
	if strings.ContainsAny(id, " \t\r\n/?#") {
		return "", fmt.Errorf("%w: product id %q contains reserved characters", ErrInvalidID, raw)
	}
	return ProductID(id), nil
}

func (id ProductID) String() string { return string(id) }

// UnmarshalText validates ids coming from JSON payloads.
func (id *ProductID) UnmarshalText(text []byte) error {
	parsed, err := NewProductID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// SourceID identifies an upstream catalog (one CatalogClient per source).
type SourceID string

// NewSourceID validates and wraps a raw source identifier.
func NewSourceID(raw string) (SourceID, error) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if !sourceIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: source id %q", ErrInvalidID, raw)
	}
	return SourceID(id), nil
}

// MustSourceID is NewSourceID for compile-time constants and tests.
func MustSourceID(raw string) SourceID {
	id, err := NewSourceID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (id SourceID) String() string { return string(id) }

// UnmarshalText validates ids coming from JSON payloads.
func (id *SourceID) UnmarshalText(text []byte) error {
	parsed, err := NewSourceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
