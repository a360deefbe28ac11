package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*model.Identity, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &model.Identity{UserID: "u-1", Role: model.RoleUser}, nil
}

func loggedChain(buf *bytes.Buffer) http.Handler {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Logger(logger)(Authenticate(stubVerifier{})(inner))
}

func TestAccessLogCoversRejectedTokens(t *testing.T) {
	var buf bytes.Buffer
	h := loggedChain(&buf)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), "status=401")
	assert.NotContains(t, buf.String(), "user_id")
}

func TestAccessLogIncludesUser(t *testing.T) {
	var buf bytes.Buffer
	h := loggedChain(&buf)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "status=200")
	assert.Contains(t, buf.String(), "user_id=u-1")
}

func TestAuthenticateWithoutLogger(t *testing.T) {
	var seen *model.Identity
	h := Authenticate(stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
}
