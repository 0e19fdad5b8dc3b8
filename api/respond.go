package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZaguanLabs/vertrans"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var cfgErr *vertrans.ConfigurationError
	switch {
	case vertrans.IsNotFound(err):
		return http.StatusNotFound
	case vertrans.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorw("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &vertrans.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func requireParams(r *http.Request, names ...string) (map[string]string, error) {
	q := r.URL.Query()
	out := make(map[string]string, len(names))
	for _, name := range names {
		v := q.Get(name)
		if v == "" {
			return nil, &vertrans.ValidationError{Field: name, Message: "is required"}
		}
		out[name] = v
	}
	return out, nil
}
