package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSONResponse writes a JSON response with the given status code
// Sets Content-Type header and handles JSON encoding
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// ClientIdentifier extracts a client identity for rate limiting purposes.
// Prefers X-Forwarded-For (first hop), then X-Real-IP, then the socket address.
func ClientIdentifier(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for i := 0; i < len(forwarded); i++ {
			if forwarded[i] == ',' {
				return trimSpaces(forwarded[:i])
			}
		}
		return trimSpaces(forwarded)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}
