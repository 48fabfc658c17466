// Package api writes JSON responses. Success bodies are the resource itself;
// failures share one error shape.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Error struct {
	Detail    string       `json:"detail"`
	Code      string       `json:"code"`
	RequestID string       `json:"requestId,omitempty"`
	Fields    []FieldIssue `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// List writes items with the unpaginated total in X-Total-Count.
func List(w http.ResponseWriter, items any, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	WriteJSON(w, http.StatusOK, items)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Fail(w http.ResponseWriter, status int, code, detail, requestID string) {
	WriteJSON(w, status, Error{Detail: detail, Code: code, RequestID: requestID})
}

func FailWithFields(w http.ResponseWriter, status int, code, detail string, fields []FieldIssue, requestID string) {
	WriteJSON(w, status, Error{Detail: detail, Code: code, RequestID: requestID, Fields: fields})
}
