package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodsnap-ai/backend/config"
	"github.com/foodsnap-ai/backend/internal/models"
	"github.com/foodsnap-ai/backend/internal/service"
	"github.com/foodsnap-ai/backend/internal/testhelpers"
)

// scriptedLLM feeds canned stage responses to the analysis pipeline.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if s.calls >= len(s.responses) {
		return "", io.ErrUnexpectedEOF
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestEnv(t *testing.T, llm service.LLMClient) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	cfg := &config.Config{
		JWTSecret:        "test-access",
		JWTRefreshSecret: "test-refresh",
		AccessTokenTTL:   20 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		SiteBaseURL:      "https://foodsnapai.food",
	}

	router := gin.New()
	SetupAPI(router, db, nil, nil, llm, cfg)

	return &testEnv{
		router: router,
		db:     db,
		auth:   service.NewAuthService(db, cfg),
	}
}

// signup creates a user straight in the database and returns it with a valid
// access token.
func (e *testEnv) signup(t *testing.T, username string, admin bool) (*models.User, string) {
	t.Helper()

	user := testhelpers.CreateTestUser(t, e.db, username, username+"@example.com", "secret123")
	if admin {
		user.IsAdmin = true
		require.NoError(t, e.db.Save(user).Error)
	}

	token, err := e.auth.IssueAccessToken(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// requestWithCookie sends a bodiless request carrying the given cookies.
func (e *testEnv) requestWithCookie(t *testing.T, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// multipartRequest builds a form with an optional photo part plus text fields.
func (e *testEnv) multipartRequest(t *testing.T, path, token string, photo []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if photo != nil {
		part, err := writer.CreateFormFile("photo", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}
