package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errorsResponse is the body of every error reply: {"errors": [...]}.
type errorsResponse struct {
	Errors []string `json:"errors"`
}

// writeErrors sends JSON {"errors": messages}.
func writeErrors(w http.ResponseWriter, code int, messages ...string) {
	if messages == nil {
		messages = []string{}
	}
	writeJSON(w, code, errorsResponse{Errors: messages})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// unpermittedMessage names every rejected parameter in the order it was received.
func unpermittedMessage(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ":" + n
	}
	if len(names) == 1 {
		return "found unpermitted parameter: " + quoted[0]
	}
	return "found unpermitted parameters: " + strings.Join(quoted, ", ")
}

func paramMissingMessage(name string) string {
	return "param is missing or the value is empty: " + name
}
