package service

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/mail"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// UserService implements registration, authentication, account updates, and
// the password-recovery flow.
type UserService struct {
	userRepo    repository.UserRepository
	hasher      *auth.PasswordHasher
	resetTokens *auth.ResetTokenService
	mailer      mail.Mailer
	images      *ImageService
	baseURL     string
}

// NewUserService wires a UserService from its collaborators.
func NewUserService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	resetTokens *auth.ResetTokenService,
	mailer mail.Mailer,
	images *ImageService,
	baseURL string,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		hasher:      hasher,
		resetTokens: resetTokens,
		mailer:      mailer,
		images:      images,
		baseURL:     baseURL,
	}
}

// Register creates a new account. The existence pre-checks give field-level
// messages; the unique indexes remain the authoritative guard, so a
// concurrent duplicate still surfaces as a conflict from Create.
func (s *UserService) Register(ctx context.Context, username, email, rawPassword string) (*models.User, error) {
	fieldErrs := validation.FieldErrors{}
	if err := validation.ValidateUsername(username); err != nil {
		fieldErrs["username"] = err.Error()
	}
	if err := validation.ValidateEmail(email); err != nil {
		fieldErrs["email"] = err.Error()
	}
	if err := validation.ValidatePassword(rawPassword); err != nil {
		fieldErrs["password"] = err.Error()
	}
	if err := fieldErrs.Err(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("That username is taken")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("That email is already registered")
	}

	digest, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  digest,
		ImageFile: models.DefaultProfileImage,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves credentials to a user. Every failure mode returns the
// same generic error so callers cannot learn whether the email or the
// password was wrong.
func (s *UserService) Authenticate(ctx context.Context, email, rawPassword string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(rawPassword, user.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// UpdateAccountInput carries profile changes. Picture is the raw upload; nil
// leaves the current picture untouched.
type UpdateAccountInput struct {
	UserID   uint
	Username string
	Email    string
	Picture  []byte
}

// UpdateAccount applies profile changes: username, email, and optionally a
// new profile picture.
func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if in.Username != user.Username {
		if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, models.NewConflictError("That username is taken")
		}
	}
	if in.Email != user.Email {
		if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, models.NewConflictError("That email is already registered")
		}
	}

	oldPicture := ""
	if len(in.Picture) > 0 {
		filename, err := s.images.SaveProfilePicture(in.Picture)
		if err != nil {
			return nil, err
		}
		oldPicture = user.ImageFile
		user.ImageFile = filename
	}

	user.Username = in.Username
	user.Email = in.Email

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if oldPicture != "" {
		s.images.Remove(oldPicture)
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the account and dispatches
// the reset email. Delivery is fire-and-forget: a mail failure is logged and
// counted but never changes the caller-visible outcome.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("There is no account with that email. You must register first.")
	}

	token, err := s.resetTokens.Issue(user.ID)
	if err != nil {
		return models.NewInternalError(err)
	}

	body := mail.ResetEmailBody(s.baseURL, token)
	recipient := user.Email
	go func() {
		// Detached from the request context on purpose; the response does
		// not wait for delivery.
		if err := s.mailer.Send(context.Background(), recipient, mail.ResetEmailSubject, body); err != nil {
			middleware.ResetEmails.WithLabelValues("error").Inc()
			middleware.Logger.Error("reset email delivery failed",
				slog.String("recipient", recipient),
				slog.String("error", err.Error()),
			)
			return
		}
		middleware.ResetEmails.WithLabelValues("sent").Inc()
	}()

	return nil
}

// ResetPassword verifies a reset token and sets the new password. A verified
// token is consumed so it cannot authorize a second change.
func (s *UserService) ResetPassword(ctx context.Context, token, rawPassword string) (*models.User, error) {
	decoded, err := s.resetTokens.Verify(ctx, token)
	if err != nil {
		return nil, models.NewValidationError("That is an invalid or expired token")
	}

	user, err := s.userRepo.GetByID(ctx, decoded.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			// The account was deleted after the token was issued.
			return nil, models.NewValidationError("That is an invalid or expired token")
		}
		return nil, err
	}

	if err := validation.ValidatePassword(rawPassword); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	digest, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = digest

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.resetTokens.Consume(ctx, decoded)
	return user, nil
}
