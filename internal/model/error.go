package model

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the standard JSON error returned by all endpoints. It
// carries the failure as a Notification so the console can show any error
// the same way.
type ErrorResponse struct {
	Error        string       `json:"error"`
	Code         string       `json:"code"`
	Notification Notification `json:"notification"`
}

// NotificationType classifies a user-visible notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is the message the console shows after a user action.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// Success returns a success notification.
func Success(message string) Notification {
	return Notification{Type: NotificationSuccess, Message: message}
}

// Failure returns an error notification.
func Failure(message string) Notification {
	return Notification{Type: NotificationError, Message: message}
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:        message,
		Code:         code,
		Notification: Failure(message),
	})
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ServerMessager is implemented by backend errors that carry the remote
// server's own error text.
type ServerMessager interface {
	ServerMessage() string
}

// FailureMessage returns the server's error text carried by err, or
// fallback when there is none.
func FailureMessage(err error, fallback string) string {
	var sm ServerMessager
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		return sm.ServerMessage()
	}
	return fallback
}
