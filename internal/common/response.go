package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Success: false, Message: message})
}

// RespondWithServiceError writes err with the status HTTPStatusFromError picks
// and returns that status. Internal errors never reach the client verbatim.
func RespondWithServiceError(w http.ResponseWriter, err error) int {
	code := HTTPStatusFromError(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		msg = ErrInternalServer.Error()
	}
	RespondWithError(w, code, msg)
	return code
}

func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Success: true, Message: message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
