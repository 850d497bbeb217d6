package transport

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/rpggio/codepulse/internal/codec"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
	"github.com/rpggio/codepulse/internal/structure"
)

const maxBodyBytes = 1 << 20

// Error kinds reported in error bodies.
const (
	KindValidation       = "validation_error"
	KindUnauthenticated  = "unauthenticated"
	KindNotFound         = "not_found"
	KindConflict         = "conflict"
	KindDecode           = "decode_error"
	KindStoreUnavailable = "store_unavailable"
	KindInternal         = "internal"
)

// ErrBadRequest indicates a malformed or incomplete request body.
var ErrBadRequest = errors.New("bad request")

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MapError classifies err into an HTTP status, a stable kind and a message
// safe to return to the caller.
func MapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, KindUnauthenticated, "unauthorized"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, structure.ErrInvalidStructure),
		errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest, KindValidation, err.Error()
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound, KindNotFound, "project not found"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, KindNotFound, "no activity found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, KindNotFound, "not found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, KindConflict, "resource already exists"
	case errors.Is(err, codec.ErrDecode):
		return http.StatusUnprocessableEntity, KindDecode, "stored structure could not be decoded"
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable, KindStoreUnavailable, "store temporarily unavailable"
	default:
		return http.StatusInternalServerError, KindInternal, "internal server error"
	}
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes the error body for err.
func WriteError(w http.ResponseWriter, err error) {
	status, kind, message := MapError(err)
	WriteJSON(w, status, ErrorBody{Error: true, Kind: kind, Message: message})
}

// decodeBody reads a size-limited JSON body into dst and applies its
// validate tags.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", ErrBadRequest)
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrBadRequest, v.Errors.One())
	}
	return nil
}
