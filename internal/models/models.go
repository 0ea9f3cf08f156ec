package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DefaultStatus is assigned to books created or updated without a status
const DefaultStatus = "to_read"

// Book represents a book record as stored and as returned to clients
type Book struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Year   *int    `json:"year"`
	Genre  *string `json:"genre"`
	Status string  `json:"status"`
	Rating *int    `json:"rating"`
}

// BookInput is the payload accepted by create and update.
// It has no ID: identifiers are assigned by storage and never taken from clients.
type BookInput struct {
	Title  string  `json:"title" validate:"required"`
	Author string  `json:"author" validate:"required"`
	Year   *int    `json:"year"`
	Genre  *string `json:"genre"`
	Status *string `json:"status"`
	Rating *int    `json:"rating"`
}

// StatusOrDefault returns the status to persist, DefaultStatus when omitted
func (in BookInput) StatusOrDefault() string {
	if in.Status == nil {
		return DefaultStatus
	}
	return *in.Status
}

// UnmarshalJSON decodes a payload, accepting base-10 integer strings for year and rating.
// An explicit null status is rejected; only an omitted status takes the default.
func (in *BookInput) UnmarshalJSON(data []byte) error {
	type plain BookInput
	aux := struct {
		*plain
		Year   json.RawMessage `json:"year"`
		Status json.RawMessage `json:"status"`
		Rating json.RawMessage `json:"rating"`
	}{plain: (*plain)(in)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if in.Year, err = lenientInt("year", aux.Year); err != nil {
		return err
	}
	if in.Rating, err = lenientInt("rating", aux.Rating); err != nil {
		return err
	}

	in.Status = nil
	if len(aux.Status) > 0 {
		var status string
		if isNull(aux.Status) || json.Unmarshal(aux.Status, &status) != nil {
			return typeError("status", aux.Status, reflect.TypeOf(status))
		}
		in.Status = &status
	}
	return nil
}

// lenientInt reads an optional integer given as a JSON number or a numeric string
func lenientInt(field string, raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, typeError(field, raw, reflect.TypeOf(0))
		}
		s = strings.TrimSpace(s)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, typeError(field, raw, reflect.TypeOf(0))
	}
	return &n, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(raw, []byte("null"))
}

func typeError(field string, raw json.RawMessage, t reflect.Type) *json.UnmarshalTypeError {
	return &json.UnmarshalTypeError{Value: string(raw), Type: t, Field: field}
}

// Event actions recorded in the activity log
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event represents a change made to the catalog
type Event struct {
	Date   time.Time `json:"date"`
	BookID int64     `json:"book_id"`
	Action string    `json:"action"`
	Title  string    `json:"title"`
}
