package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	acceptMessage      = "The header 'Accept' must be defined or the type is not supported by the server"
	contentTypeMessage = "The header 'Content-Type' must be defined or the type is not supported by the server"
)

// RequireJSON rejects GET requests that do not accept application/json (406) and
// any other request whose body is not declared as application/json (415).
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if !strings.Contains(r.Header.Get("Accept"), "application/json") {
				writeErrors(w, http.StatusNotAcceptable, acceptMessage)
				return
			}
		} else if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			writeErrors(w, http.StatusUnsupportedMediaType, contentTypeMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeErrors(w http.ResponseWriter, code int, messages ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string][]string{"errors": messages})
}
