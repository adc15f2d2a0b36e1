package web

// errors.go writes every response in one envelope shape.
//
// Successful responses carry "response_type": "success". Failures carry the
// response type, message, action and code chosen by core.MapError, plus the
// request's query parameters so clients can see what was rejected. The
// technical error is logged with the request ID and never sent to clients.

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/JonMunkholm/csvsearch/internal/logging"
)

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	ResponseType string            `json:"response_type"`
	Message      string            `json:"message"`
	Action       string            `json:"action,omitempty"`
	Code         string            `json:"code"`
	Params       map[string]string `json:"params,omitempty"`
}

// respondError maps err to a user message, logs it and writes the envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	respondMessage(w, r, msg)
}

func respondMessage(w http.ResponseWriter, r *http.Request, msg core.UserMessage) {
	status := msg.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	respondJSON(w, r, status, ErrorResponse{
		ResponseType: msg.Response,
		Message:      msg.Message,
		Action:       msg.Action,
		Code:         msg.Code,
		Params:       queryParams(r),
	})
}

// respondJSON encodes v as JSON. Encoding errors are logged since the
// status line is already written by then.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// queryParams flattens the query string, keeping the first value per key.
func queryParams(r *http.Request) map[string]string {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
