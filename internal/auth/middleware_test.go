package auth

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateProbe struct {
	called bool
	auth   AuthContext
	hasCtx bool
}

func newGateRouter(t *testing.T, now time.Time) (*gin.Engine, *gateProbe, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	probe := &gateProbe{}

	router := gin.New()
	router.Use(NewGate(newTestCodec(t), logger, func() time.Time { return now }))
	router.GET("/probe", func(c *gin.Context) {
		probe.called = true
		probe.auth, probe.hasCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router, probe, &buf
}

func gateEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry["msg"] == "auth gate" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func serveProbe(router *gin.Engine, authorization ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for _, v := range authorization {
		req.Header.Add("Authorization", v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGateWithoutHeaderPassesAnonymously(t *testing.T) {
	router, probe, buf := newGateRouter(t, testIssued)

	rec := serveProbe(router)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, probe.called)
	assert.False(t, probe.hasCtx)

	entries := gateEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "anonymous", entries[0]["result"])
	assert.Equal(t, "no_header", entries[0]["reason"])
}

func TestGateValidTokenAttachesSubject(t *testing.T) {
	router, probe, buf := newGateRouter(t, testIssued.Add(time.Minute))
	token, err := newTestCodec(t).Issue(42, testIssued)
	require.NoError(t, err)

	rec := serveProbe(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, probe.called)
	require.True(t, probe.hasCtx)
	assert.Equal(t, int64(42), probe.auth.SubjectID)

	entries := gateEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "pass", entries[0]["result"])
	assert.Equal(t, "ok", entries[0]["reason"])
}

func TestGateRejections(t *testing.T) {
	token, err := newTestCodec(t).Issue(42, testIssued)
	require.NoError(t, err)
	other, err := NewTokenCodec([]byte("another-key"), DefaultTokenLifetime)
	require.NoError(t, err)
	forged, err := other.Issue(42, testIssued)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		now    time.Time
		reason string
	}{
		{"empty header", "", testIssued, "bad_scheme"},
		{"basic scheme", "Basic YWxpY2U6czNjcjN0", testIssued, "bad_scheme"},
		{"lowercase bearer", "bearer " + token, testIssued, "bad_scheme"},
		{"raw token", token, testIssued, "bad_scheme"},
		{"garbage token", "Bearer not-a-token", testIssued, "malformed"},
		{"expired token", "Bearer " + token, testIssued.Add(DefaultTokenLifetime + time.Second), "expired"},
		{"foreign key", "Bearer " + forged, testIssued, "bad_signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, probe, buf := newGateRouter(t, tt.now)

			rec := serveProbe(router, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, probe.called)
			assert.JSONEq(t, `{"status":401,"msg":"Unauthorized access","results":null}`, rec.Body.String())

			entries := gateEntries(t, buf)
			require.Len(t, entries, 1)
			assert.Equal(t, "reject", entries[0]["result"])
			assert.Equal(t, tt.reason, entries[0]["reason"])
		})
	}
}

func TestRequireLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t, newFakeUserStore(), nil)

	router := gin.New()
	router.Use(m.Gate())
	router.GET("/private", m.RequireLogin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := m.tokens.Issue(1, testIssued)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
