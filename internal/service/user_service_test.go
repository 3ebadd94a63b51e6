package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

// recordMailer captures outgoing mail for assertions. Sends happen on a
// detached goroutine, so delivery is signalled through a channel.
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

type memoryDenylist struct {
	mu   sync.Mutex
	used map[string]bool
}

func (d *memoryDenylist) Deny(_ context.Context, jti string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.used[jti] = true
	return nil
}

func (d *memoryDenylist) IsDenied(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used[jti], nil
}

type userServiceFixture struct {
	db     *gorm.DB
	svc    *UserService
	mailer *recordMailer
	tokens *auth.ResetTokenService
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	db, err := database.ConnectSQLite(":memory:")
	require.NoError(t, err)

	mailer := newRecordMailer()
	tokens := auth.NewResetTokenService("service-test-secret", 30*time.Minute, &memoryDenylist{used: map[string]bool{}})
	svc := NewUserService(
		repository.NewUserRepository(db),
		auth.NewPasswordHasher(),
		tokens,
		mailer,
		NewImageService(t.TempDir()),
		"http://localhost:8246",
	)
	return &userServiceFixture{db: db, svc: svc, mailer: mailer, tokens: tokens}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.DefaultProfileImage, user.ImageFile)
	assert.NotEqual(t, "pw123", user.Password, "plaintext must never persist")

	authed, err := f.svc.Authenticate(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestAuthenticateGenericFailure(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	_, wrongPass := f.svc.Authenticate(ctx, "a@x.com", "wrong")
	_, unknownEmail := f.svc.Authenticate(ctx, "b@y.com", "pw123")

	require.Error(t, wrongPass)
	require.Error(t, unknownEmail)
	// Same message either way: the caller cannot tell which field was wrong.
	assert.Equal(t, wrongPass.Error(), unknownEmail.Error())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "alice", "b@y.com", "pw456")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "bob", "a@x.com", "pw456")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"bad username", "a", "a@x.com", "pw123"},
		{"bad email", "alice", "nope", "pw123"},
		{"empty password", "alice", "a@x.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.username, tc.email, tc.password)
			require.Error(t, err)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestUpdateAccount(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	updated, err := f.svc.UpdateAccount(ctx, UpdateAccountInput{
		UserID:   user.ID,
		Username: "alice2",
		Email:    "a2@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "a2@x.com", updated.Email)
}

func TestUpdateAccountRejectsTakenUsername(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)
	bob, err := f.svc.Register(ctx, "bob", "b@y.com", "pw123")
	require.NoError(t, err)

	_, err = f.svc.UpdateAccount(ctx, UpdateAccountInput{
		UserID:   bob.ID,
		Username: "alice",
		Email:    bob.Email,
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))

	msg := f.mailer.wait(t)
	assert.Equal(t, "a@x.com", msg.Recipient)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.Body, "http://localhost:8246/reset-password/")

	// Extract the token from the mail body.
	var token string
	_, err = fmt.Sscanf(msg.Body, "To reset your password, visit the following link:\nhttp://localhost:8246/reset-password/%s", &token)
	require.NoError(t, err)

	reset, err := f.svc.ResetPassword(ctx, token, "newpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, reset.ID)

	// Old password no longer works; the new one does.
	_, err = f.svc.Authenticate(ctx, "a@x.com", "pw123")
	assert.Error(t, err)
	_, err = f.svc.Authenticate(ctx, "a@x.com", "newpass")
	assert.NoError(t, err)
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	f := newUserServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))

	msg := f.mailer.wait(t)
	var token string
	_, err = fmt.Sscanf(msg.Body, "To reset your password, visit the following link:\nhttp://localhost:8246/reset-password/%s", &token)
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, token, "newpass")
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, token, "anotherpass")
	require.Error(t, err, "a consumed token must not authorize a second change")
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newUserServiceFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "nobody@x.com")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestPasswordResetInvalidToken(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.ResetPassword(context.Background(), "garbage-token", "newpass")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
