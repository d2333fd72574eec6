package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var (
	guestIdentity = domain.Identity{ID: 7, Email: "ada@example.com", Role: domain.RoleUser}
	adminIdentity = domain.Identity{ID: 1, Email: "owner@example.com", Role: domain.RoleAdmin}
)

// stubTokens accepts "Bearer <name>" for the names it knows.
type stubTokens map[string]domain.Identity

func (s stubTokens) Parse(raw string) (domain.Identity, error) {
	identity, ok := s[strings.TrimPrefix(raw, "Bearer ")]
	if !ok {
		return domain.Identity{}, domain.Wrap(domain.ErrUnauthorized, errors.New("unknown token"))
	}
	return identity, nil
}

var testTokens = stubTokens{"guest": guestIdentity, "admin": adminIdentity}

func newEngine(prefix string, register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Authenticate(testTokens, false))
	register(engine.Group(prefix))
	return engine
}

func perform(engine http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = strings.NewReader(s)
		} else {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}
