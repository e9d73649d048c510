package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/detect"
	"github.com/harrylevesque/phishaware/internal/ui"
	"github.com/harrylevesque/phishaware/internal/utils"
)

var (
	errUnsupportedUpload = errors.New("unsupported file type")
	errUploadTooLarge    = errors.New("upload too large")
	errAssistantDisabled = errors.New("assistant not configured")
	errBadOption         = errors.New("invalid option")
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case auth.IsValidation(err),
		errors.Is(err, assist.ErrEmptyPrompt),
		errors.Is(err, detect.ErrNoInput),
		errors.Is(err, errBadOption):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrOAuthState):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrNoProviderAccount), errors.Is(err, ui.ErrUnknownToggle):
		return http.StatusNotFound
	case errors.Is(err, errUnsupportedUpload):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errAssistantDisabled):
		return http.StatusServiceUnavailable
	case utils.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the user-facing text for err. fallback replaces the
// generic remote message where a screen has its own wording.
func messageFor(err error, fallback string) string {
	switch {
	case errors.Is(err, assist.ErrEmptyPrompt):
		return assist.MsgEmptyPrompt
	case errors.Is(err, detect.ErrNoInput):
		return detect.MsgNoInput
	case errors.Is(err, errUnsupportedUpload):
		return "Unsupported file type. Upload an image or a text file."
	case errors.Is(err, errUploadTooLarge):
		return "That file is too large."
	case errors.Is(err, errAssistantDisabled):
		return "The assistant is not available right now."
	case errors.Is(err, errBadOption):
		return "Please pick one of the answers."
	case errors.Is(err, auth.ErrOAuthState):
		return "Your sign-in attempt expired. Please try again."
	}
	return auth.Message(err, fallback)
}
