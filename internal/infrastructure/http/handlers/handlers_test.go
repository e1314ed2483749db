package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryKeys(t *testing.T) {
	assert.Nil(t, queryKeys(""))
	assert.Equal(t, []string{"email", "full_name"}, queryKeys("email=a&full_name=b&email=c"))
	assert.Equal(t, []string{"user name", "flag"}, queryKeys("user+name=x&flag&&"))
	assert.Equal(t, []string{"a[b]"}, queryKeys("a%5Bb%5D=1"))
}

func TestUnpermittedMessage(t *testing.T) {
	assert.Equal(t, "found unpermitted parameter: :foo", unpermittedMessage([]string{"foo"}))
	assert.Equal(t, "found unpermitted parameters: :key, :cellphone", unpermittedMessage([]string{"key", "cellphone"}))
}

func TestDecodeObjectKeepsOrder(t *testing.T) {
	fields, ok := decodeObject(json.RawMessage(`{"z":1,"a":{"x":[1,2]},"m":null}`))
	require.True(t, ok)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)

	_, ok = decodeObject(json.RawMessage(`[1]`))
	assert.False(t, ok)
	_, ok = decodeObject(nil)
	assert.False(t, ok)
}

func TestScalarString(t *testing.T) {
	for raw, want := range map[string]string{`"x"`: "x", `null`: "", `42`: "42", `true`: "true"} {
		got, ok := scalarString(json.RawMessage(raw))
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{`{}`, `[]`} {
		_, ok := scalarString(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := httptest.NewRecorder()
	NewHealthHandler(pinger{}, rdb).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(pinger{err: errors.New("refused")}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "down: refused", body.Checks["database"])
}
