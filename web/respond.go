// ABOUTME: JSON responses, error mapping and request decoding for the API
// ABOUTME: Identity comes from gateway headers; validation errors carry per-field messages
package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
)

type identityKey struct{}

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(err error) int {
	switch apperr.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "invalid_argument":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := APIError{Code: apperr.Kind(err), Message: err.Error()}
	var fe *fieldErrors
	if errors.As(err, &fe) {
		body.Fields = fe.fields
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

// identify reads the caller identity set by the gateway.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := auth.ParseRole(r.Header.Get(HeaderRole))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		id := auth.Identity{Role: role, ClientID: strings.TrimSpace(r.Header.Get(HeaderClientID))}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey{}).(auth.Identity)
	return id
}

func pathID(r *http.Request) (uuid.UUID, error) {
	v := mux.Vars(r)["id"]
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Invalid("%q is not a valid id", v)
	}
	return id, nil
}

// decode reads an optional JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Invalid("read body: %v", err)
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return apperr.Invalid("invalid json: %v", err)
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type fieldErrors struct {
	error
	fields map[string]string
}

func (f *fieldErrors) Unwrap() error { return f.error }

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid("validation failed: %v", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &fieldErrors{error: apperr.Invalid("validation failed"), fields: fields}
}
