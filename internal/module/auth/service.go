package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/email"
)

// resetTokenTTL is how long a password reset token stays usable.
const resetTokenTTL = 10 * time.Minute

// Service defines the authentication operations.
type Service interface {
	Signup(ctx context.Context, name, email, password string) (*Credentials, error)
	Login(ctx context.Context, email, password string) (*Credentials, error)
	// ForgotPassword mails a single-use reset token to the account's address.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes a reset token and sets a new password.
	ResetPassword(ctx context.Context, token, password string) (*Credentials, error)
	// UpdatePassword changes the password of an authenticated user after
	// re-checking the current one.
	UpdatePassword(ctx context.Context, user *domain.User, current, password string) (*Credentials, error)
}

// authService implements Service.
type authService struct {
	userRepo    domain.UserRepository
	mailer      *email.Sender
	log         *slog.Logger
	jwtSecret   []byte
	tokenExpiry time.Duration
	baseURL     string
}

// NewService creates a new auth Service.
func NewService(userRepo domain.UserRepository, mailer *email.Sender, log *slog.Logger, jwtSecret string, tokenExpiry time.Duration, baseURL string) Service {
	return &authService{
		userRepo:    userRepo,
		mailer:      mailer,
		log:         log,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// signToken issues an HS256 token carrying the user id and issue time. The
// issue time lets the guard reject tokens minted before a password change.
func (s *authService) signToken(user *domain.User) (*Credentials, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenExpiry)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to generate token", err)
	}

	return &Credentials{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Signup creates a new account and logs it in. The role is always "user";
// privileged roles are assigned by an admin afterwards.
func (s *authService) Signup(ctx context.Context, name, emailAddr, password string) (*Credentials, error) {
	name = strings.TrimSpace(name)
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := domain.User{
		Name:      name,
		Email:     emailAddr,
		Role:      domain.RoleUser,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, err
	}

	// The welcome email is best effort; signup must not fail on a mail outage.
	if err := s.mailer.SendWelcome(ctx, &user, s.baseURL+"/me"); err != nil {
		s.log.WarnContext(ctx, "failed to send welcome email", "email", user.Email, "error", err)
	}

	return s.signToken(&user)
}

// Login authenticates by email and password.
func (s *authService) Login(ctx context.Context, emailAddr, password string) (*Credentials, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		// Don't reveal whether the account exists.
		if domain.IsNotFound(err) {
			return nil, domain.NewAppError(domain.CodeNotAuthenticated, "incorrect email or password", nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.NewAppError(domain.CodeNotAuthenticated, "incorrect email or password", nil)
	}

	return s.signToken(user)
}

// ForgotPassword generates a reset token, stores only its hash, and mails the
// plain token to the account. If the mail cannot be delivered the token is
// cleared again so a stale hash never lingers.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewAppError(domain.CodeNotFound, "there is no user with that email address", nil)
		}
		return err
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to generate reset token", err)
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := s.baseURL + "/api/v1/users/resetPassword/" + token
	if err := s.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.log.ErrorContext(ctx, "failed to clear reset token after send failure", "user_id", user.ID.Hex(), "error", clearErr)
		}
		return domain.NewAppError(domain.CodeInternal, "there was an error sending the email, try again later", err)
	}

	return nil
}

// ResetPassword looks up the account by the hashed token and sets the new
// password, then logs the user in.
func (s *authService) ResetPassword(ctx context.Context, token, password string) (*Credentials, error) {
	user, err := s.userRepo.GetByResetToken(ctx, hashToken(token), time.Now())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAppError(domain.CodeValidation, "token is invalid or has expired", nil)
		}
		return nil, err
	}

	return s.changePassword(ctx, user, password)
}

// UpdatePassword re-checks the current password before setting the new one.
func (s *authService) UpdatePassword(ctx context.Context, user *domain.User, current, password string) (*Credentials, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return nil, domain.NewAppError(domain.CodeNotAuthenticated, "your current password is wrong", nil)
	}

	return s.changePassword(ctx, user, password)
}

func (s *authService) changePassword(ctx context.Context, user *domain.User, password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	changedAt := time.Now().UTC()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash), changedAt); err != nil {
		return nil, err
	}
	user.Password = string(hash)
	user.PasswordChangedAt = changedAt

	return s.signToken(user)
}

// newResetToken returns a random token and the hash stored server side.
func newResetToken() (token, tokenHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
