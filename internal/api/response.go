// Package api provides the operational HTTP surface for ChatBotCore.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// statusResponse is the envelope for all JSON responses served by this package.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func okResponse(message string) statusResponse {
	return statusResponse{Status: "ok", Message: message}
}

func errorResponse(message string) statusResponse {
	return statusResponse{Status: "error", Message: message}
}

// Pre-marshaled fallback so a marshal failure at request time still produces
// valid JSON.
var fallbackErrorResponse []byte

func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(errorResponse("internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal first to catch encoding errors before headers are written.
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server writeJSONResponse failed to marshal", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server writeJSONResponse failed to write", "error", writeErr)
	}
}
