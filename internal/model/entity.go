// Package model defines the catalog entities shared by both storage
// backends and the HTTP layer, along with the shallow patch merge used by
// admin updates.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Meta holds the columns every entity carries.
type Meta struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base returns the embedded metadata so generic code can stamp ids and
// timestamps without knowing the concrete entity.
func (m *Meta) Base() *Meta { return m }

// Record is implemented by pointers to every entity type.
type Record interface {
	Base() *Meta
	BeforeSave(now time.Time)
	Validate() error
}

// ErrValidation marks a request payload that is missing required fields or
// carries an invalid value.
var ErrValidation = errors.New("validation failed")

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

// Patch is a shallow update: each top-level key replaces the whole field.
type Patch map[string]json.RawMessage

// readOnlyKeys are ignored when merging a patch.
var readOnlyKeys = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// fieldFor resolves a patch key to one of the entity's JSON field names.
// An exact match wins, then a case-insensitive one, as encoding/json does
// when decoding.
func fieldFor(fields map[string]json.RawMessage, key string) (string, bool) {
	if _, ok := fields[key]; ok {
		return key, true
	}
	for name := range fields {
		if strings.EqualFold(name, key) {
			return name, true
		}
	}
	return "", false
}

// ApplyPatch merges p into dst.  Nested values such as specification lists
// are replaced, never merged element-wise.  A key that names no field of
// dst is a validation error.
func ApplyPatch[T any](dst *T, p Patch) error {
	cur, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(cur, &fields); err != nil {
		return err
	}
	updates := make(map[string]json.RawMessage, len(p))
	for k, v := range p {
		name, ok := fieldFor(fields, k)
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrValidation, k)
		}
		if readOnlyKeys[name] {
			continue
		}
		updates[name] = v
	}
	for name, v := range updates {
		fields[name] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	*dst = out
	return nil
}

// JSONList stores a slice in a single JSON column.
type JSONList[T any] []T

// Value implements driver.Valuer.
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *JSONList[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("JSONList: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*l = JSONList[T]{}
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = []T{}
	}
	*l = out
	return nil
}

// orEmpty keeps nil lists out of JSON responses.
func orEmpty[T any](l JSONList[T]) JSONList[T] {
	if l == nil {
		return JSONList[T]{}
	}
	return l
}
