package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/users"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

const maxBodyBytes = 1 << 20

var (
	listParams   = []string{"email", "full_name", "metadata"}
	createParams = []string{"email", "phone_number", "full_name", "password", "metadata"}
)

// UsersHandler serves /api/users.
type UsersHandler struct {
	register *users.RegisterUser
	list     *users.ListUsers
	log      zerolog.Logger
}

func NewUsersHandler(register *users.RegisterUser, list *users.ListUsers, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{register: register, list: list, log: log}
}

// UserResponse is the public JSON shape of a user. The password hash is never exposed.
type UserResponse struct {
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	FullName    string  `json:"full_name"`
	Key         string  `json:"key"`
	AccountKey  *string `json:"account_key"`
	Metadata    string  `json:"metadata"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		FullName:    u.FullName,
		Key:         u.InternalKey,
		AccountKey:  u.AccountKey,
		Metadata:    u.Metadata,
	}
}

// List returns users most recently created first, narrowed by exact-match email, full_name and metadata.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	if bad := unpermitted(queryKeys(r.URL.RawQuery), listParams); len(bad) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, unpermittedMessage(bad))
		return
	}
	q := r.URL.Query()
	result, err := h.list.Execute(r.Context(), users.ListUsersInput{Filter: domain.ListFilter{
		Email:    lastValue(q, "email"),
		FullName: lastValue(q, "full_name"),
		Metadata: lastValue(q, "metadata"),
	}})
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]UserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		items = append(items, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": items})
}

// Create registers a user from {"user": {...}} and responds 201 with its public fields.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid body")
		return
	}
	var envelope map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			writeErrors(w, http.StatusBadRequest, "invalid body")
			return
		}
	}
	fields, ok := decodeObject(envelope["user"])
	if !ok || len(fields) == 0 {
		writeErrors(w, http.StatusBadRequest, paramMissingMessage("user"))
		return
	}

	values := make(map[string]string, len(fields))
	var bad []string
	for _, f := range fields {
		v, scalar := scalarString(f.value)
		if !scalar || !contains(createParams, f.name) {
			bad = append(bad, f.name)
			continue
		}
		values[f.name] = v
	}
	if len(bad) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, unpermittedMessage(bad))
		return
	}

	result, err := h.register.Execute(r.Context(), users.RegisterUserInput{
		Email:       values["email"],
		PhoneNumber: values["phone_number"],
		FullName:    values["full_name"],
		Password:    values["password"],
		Metadata:    values["metadata"],
	})
	if err != nil {
		var verr *domerrors.ValidationError
		if errors.As(err, &verr) {
			writeErrors(w, http.StatusUnprocessableEntity, verr.Messages...)
			return
		}
		h.log.Error().Err(err).Msg("register user failed")
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(result.User))
}

// queryKeys returns the distinct parameter names of a raw query in the order they appear.
func queryKeys(rawQuery string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, name)
	}
	return keys
}

// lastValue returns the last value given for key, or nil when key is absent.
// A present but empty value filters on the empty string.
func lastValue(q url.Values, key string) *string {
	vs := q[key]
	if len(vs) == 0 {
		return nil
	}
	v := vs[len(vs)-1]
	return &v
}

func unpermitted(keys, allowed []string) []string {
	var bad []string
	for _, k := range keys {
		if !contains(allowed, k) {
			bad = append(bad, k)
		}
	}
	return bad
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type objectField struct {
	name  string
	value json.RawMessage
}

// decodeObject reads a JSON object keeping its key order. ok is false when raw is not an object.
func decodeObject(raw json.RawMessage) ([]objectField, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var fields []objectField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		name, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		fields = append(fields, objectField{name: name, value: value})
	}
	return fields, true
}

// scalarString renders a JSON scalar as a string. null becomes "". Objects and arrays are not scalars.
func scalarString(raw json.RawMessage) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64, bool:
		return strings.TrimSpace(string(raw)), true
	default:
		return "", false
	}
}
