package middleware

import (
	"encoding/json"
	"net/http"
)

// rejection mirrors the API's error envelope for requests stopped before
// they reach a handler.
type rejection struct {
	ResponseType string `json:"response_type"`
	Message      string `json:"message"`
	Action       string `json:"action"`
	Code         string `json:"code"`
}

func writeReject(w http.ResponseWriter, status int, message, action, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(rejection{
		ResponseType: "error_bad_request",
		Message:      message,
		Action:       action,
		Code:         code,
	})
}
