package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

// recordMailer captures outgoing mail so tests can pull tokens out of the
// reset email body.
type recordMailer struct {
	ch chan sentMail
}

func newRecordMailer() *recordMailer {
	return &recordMailer{ch: make(chan sentMail, 8)}
}

func (m *recordMailer) Send(_ context.Context, recipient, subject, body string) error {
	m.ch <- sentMail{Recipient: recipient, Subject: subject, Body: body}
	return nil
}

func (m *recordMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail")
		return sentMail{}
	}
}

// newTestServer wires a Server against an in-memory database with routes
// registered on a bare Fiber app. The Prometheus HTTP middleware stays out so
// repeated fixtures do not re-register collectors.
func newTestServer(t *testing.T) (*fiber.App, *recordMailer) {
	t.Helper()

	db, err := database.ConnectSQLite(":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		SecretKey:        "server-test-secret",
		Port:             "8246",
		BaseURL:          "http://localhost:8246",
		UploadDir:        t.TempDir(),
		ResetTokenTTLSec: 1800,
		Env:              "test",
	}

	mailer := newRecordMailer()
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	resetTokens := auth.NewResetTokenService(
		cfg.SecretKey, time.Duration(cfg.ResetTokenTTLSec)*time.Second, nil)

	s := &Server{
		config:   cfg,
		db:       db,
		sessions: auth.NewSessionManager(cfg.SecretKey),
		userRepo: userRepo,
		postRepo: postRepo,
	}
	s.userService = service.NewUserService(
		userRepo,
		auth.NewPasswordHasher(),
		resetTokens,
		mailer,
		service.NewImageService(cfg.UploadDir),
		cfg.BaseURL,
	)
	s.postService = service.NewPostService(postRepo, userRepo)

	app := fiber.New()
	s.SetupRoutes(app)
	return app, mailer
}

// doJSON performs a JSON request against the app. A non-empty token is sent
// as a Bearer Authorization header.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

// registerAndLogin creates an account and returns a session token for it.
func registerAndLogin(t *testing.T, app *fiber.App, username, email, password string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, ok := body["token"].(string)
	require.True(t, ok, "login response must carry a session token")
	return token
}
