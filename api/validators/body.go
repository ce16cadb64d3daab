package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json name so details match the request payload
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}()

var fieldMessages = map[string]func(validator.FieldError) string{
	"required": func(validator.FieldError) string { return "is required" },
	"email":    func(validator.FieldError) string { return "must be a valid email" },
	"min":      func(fe validator.FieldError) string { return "must be at least " + fe.Param() },
	"max":      func(fe validator.FieldError) string { return "must be at most " + fe.Param() },
}

// DecodeJSONBody strictly decodes a single JSON object into dest and runs its
// validate tags. Every failure is a VALIDATION_ERROR.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return bodyError(errors.New("body must contain a single JSON object"))
	}

	if err := validate.Struct(dest); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func bodyError(err error) *pkgerrors.Error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	reason := err.Error()
	switch {
	case errors.Is(err, io.EOF):
		reason = "request body is empty"
	case errors.Is(err, io.ErrUnexpectedEOF):
		reason = "request body is truncated"
	case errors.As(err, &syntaxErr):
		reason = fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		reason = fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &sizeErr):
		reason = fmt.Sprintf("request body exceeds %d bytes", sizeErr.Limit)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": reason})
}

func fieldErrors(err error) *pkgerrors.Error {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		msg := "is invalid"
		if render, ok := fieldMessages[fe.Tag()]; ok {
			msg = render(fe)
		}
		details[fe.Field()] = msg
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}
