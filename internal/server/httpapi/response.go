// Package httpapi adapts the SafePazz services to a JSON over HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
)

// maxBodyBytes bounds request bodies; the largest valid body is a credential
// with maximum-length notes.
const maxBodyBytes = 1 << 20

// Error codes that are not domain identifiers.
const (
	codeValidation = "VALIDATION_ERROR"
	codeInternal   = "INTERNAL_SERVER_ERROR"
	codeRateLimit  = "RATE_LIMIT_EXCEEDED"
)

const (
	msgInvalidBody     = "invalidRequestBody"
	msgInternal        = "An unexpected error occurred"
	msgTooManyRequests = "tooManyRequests"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{
		Error:     errorBody{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

// writeValidation reports input rejected at the boundary, before any
// service was called.
func writeValidation(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, codeValidation, message)
}

// statusFor maps an error class to the response status.
func statusFor(class common.ErrorClass) int {
	switch class {
	case common.ClassValidation:
		return http.StatusBadRequest
	case common.ClassAuthentication:
		return http.StatusUnauthorized
	case common.ClassForbidden:
		return http.StatusForbidden
	case common.ClassNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a single JSON object from the request body.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
