package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"booksapi/internal/models"
)

// ValidationError is a request that could not be coerced into the expected shape
type ValidationError struct {
	Detail string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+": "+rule)
	}
	return fmt.Sprintf("%s (%s)", e.Detail, strings.Join(parts, ", "))
}

func invalidField(field, rule string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: map[string]string{field: rule}}
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBookInput reads and validates a create/update payload
func (hs *HTTPServer) decodeBookInput(r *http.Request) (models.BookInput, error) {
	var in models.BookInput

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		switch {
		case errors.Is(err, io.EOF):
			return in, invalidField("body", "required")
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return in, invalidField(field, "must be "+typeName(typeErr.Type))
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return in, &ValidationError{Detail: "invalid JSON"}
		default:
			return in, &ValidationError{Detail: "invalid request body"}
		}
	}

	// The body must hold exactly one JSON value
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return in, &ValidationError{Detail: "invalid JSON"}
	}

	if err := hs.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			verr := &ValidationError{Detail: "validation error", Fields: make(map[string]string, len(fieldErrs))}
			for _, fe := range fieldErrs {
				verr.Fields[fe.Field()] = fe.Tag()
			}
			return in, verr
		}
		return in, err
	}

	return in, nil
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.String:
		return "string"
	case reflect.Struct:
		return "object"
	default:
		return t.String()
	}
}

// bookID parses the {id} path parameter
func bookID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, invalidField("id", "must be integer")
	}
	return id, nil
}
