package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"catalog/internal/models"
	"catalog/internal/notify"
	"catalog/internal/repository"
)

type OTPConfig struct {
	Length int
	TTL    time.Duration
	// Echo returns the code to the caller and tolerates delivery failures.
	Echo bool
}

// CodeIssue is the result of a code request. Code is empty unless echo is on.
type CodeIssue struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.PublicUser
}

// Authenticator runs the one-time code login flow.
type Authenticator struct {
	users    repository.UserStore
	tokens   *TokenIssuer
	notifier notify.Notifier
	cfg      OTPConfig
	log      *zap.Logger

	now      func() time.Time
	generate func(length int) (string, error)
}

func NewAuthenticator(users repository.UserStore, tokens *TokenIssuer, notifier notify.Notifier, cfg OTPConfig, log *zap.Logger) *Authenticator {
	return &Authenticator{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		generate: generateCode,
	}
}

// RequestCode finds or creates the user for identifier and issues a fresh
// code, replacing any pending one.
func (a *Authenticator) RequestCode(ctx context.Context, identifier string) (CodeIssue, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return CodeIssue{}, models.Validationf("Email or phone number is required")
	}

	user, err := a.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = a.createUser(ctx, &models.User{
			EmailOrPhone: identifier,
			Name:         identifier,
			Role:         models.RoleUser,
			CreatedAt:    a.now().UTC(),
		})
	}
	if err != nil {
		return CodeIssue{}, models.Unexpected("Error in login", err)
	}

	return a.issueCode(ctx, user)
}

// createUser inserts user; a concurrent insert of the same identifier wins
// and its record is returned instead.
func (a *Authenticator) createUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := a.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return a.users.FindByIdentifier(ctx, user.EmailOrPhone)
	}
	if err != nil {
		return nil, err
	}
	a.log.Info("user created", zap.String("userId", user.ID.Hex()))
	return user, nil
}

// Register creates a user explicitly and issues a code like RequestCode.
func (a *Authenticator) Register(ctx context.Context, identifier, name, password string) (CodeIssue, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return CodeIssue{}, models.Validationf("Email or phone number is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = identifier
	}

	if _, err := a.users.FindByIdentifier(ctx, identifier); err == nil {
		return CodeIssue{}, models.Validationf("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return CodeIssue{}, models.Unexpected("Error in registration", err)
	}

	user := &models.User{
		EmailOrPhone: identifier,
		Name:         name,
		Role:         models.RoleUser,
		CreatedAt:    a.now().UTC(),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return CodeIssue{}, models.Unexpected("Error in registration", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return CodeIssue{}, models.Validationf("User already exists")
		}
		return CodeIssue{}, models.Unexpected("Error in registration", err)
	}
	a.log.Info("user registered", zap.String("userId", user.ID.Hex()))

	return a.issueCode(ctx, user)
}

func (a *Authenticator) issueCode(ctx context.Context, user *models.User) (CodeIssue, error) {
	code, err := a.generate(a.cfg.Length)
	if err != nil {
		return CodeIssue{}, models.Unexpected("Error generating code", err)
	}
	expiresAt := a.now().Add(a.cfg.TTL).UTC()

	if err := a.users.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return CodeIssue{}, models.Unexpected("Error saving code", err)
	}

	if err := a.notifier.SendCode(ctx, user.EmailOrPhone, code, a.cfg.TTL); err != nil {
		if !a.cfg.Echo {
			a.log.Error("code delivery failed", zap.String("userId", user.ID.Hex()), zap.Error(err))
			return CodeIssue{}, models.Unexpected("Error sending code", err)
		}
		a.log.Warn("code delivery failed", zap.String("userId", user.ID.Hex()), zap.Error(err))
	}

	issue := CodeIssue{UserID: user.ID.Hex(), ExpiresAt: expiresAt}
	if a.cfg.Echo {
		issue.Code = code
	}
	return issue, nil
}

// VerifyCode checks code against the user's pending code. A successful check
// consumes the code, so the same code never verifies twice.
func (a *Authenticator) VerifyCode(ctx context.Context, userID, code string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if userID == "" || code == "" {
		return nil, models.Validationf("User ID and OTP are required")
	}

	user, err := a.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NotFound("User not found")
	}
	if err != nil {
		return nil, models.Unexpected("Error in OTP verification", err)
	}

	// a consumed code reads as expired
	if !user.HasActiveCode() || user.OTPExpiry.Before(a.now()) {
		return nil, models.Expired("OTP has expired")
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(code)) != 1 {
		a.log.Info("otp mismatch", zap.String("userId", userID))
		return nil, models.InvalidCredential("Invalid OTP")
	}

	if err := a.users.ConsumeOTP(ctx, user.ID, *user.OTP); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.InvalidCredential("Invalid OTP")
		}
		return nil, models.Unexpected("Error in OTP verification", err)
	}
	user.OTP = nil
	user.OTPExpiry = nil
	user.IsVerified = true

	token, expiresAt, err := a.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	a.log.Info("login successful", zap.String("userId", userID))

	return &Session{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

func (a *Authenticator) Me(user *models.User) models.PublicUser {
	return user.Public()
}
