package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/playperu/heritagequest/internal/heritage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeRequest reads a JSON body into v and validates its struct tags. On
// failure the 400 response has already been written.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", lowerFirst(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", lowerFirst(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", lowerFirst(fe.Field())))
		}
	}
	return strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// writeServiceError maps a domain error to its HTTP status. Only unexpected
// failures are logged.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	switch heritage.KindOf(err) {
	case heritage.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case heritage.KindInvalidState, heritage.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case heritage.KindInvalidArgument:
		writeError(w, http.StatusBadRequest, err.Error())
	case heritage.KindStoreUnavailable:
		logger.Warn("store unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
