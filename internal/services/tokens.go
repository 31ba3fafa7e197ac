package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"catalog/internal/models"
	"catalog/internal/repository"
)

type sessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, models.Unexpected("Error signing token", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer and expiry and returns the user id.
func (t *TokenIssuer) Parse(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", models.Unauthenticated("Token expired")
		}
		return "", models.Unauthenticated("Invalid token")
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", models.Unauthenticated("Invalid token")
	}
	return userID, nil
}

// SessionVerifier resolves a bearer token to a freshly loaded user.
type SessionVerifier struct {
	tokens *TokenIssuer
	users  repository.UserStore
}

func NewSessionVerifier(tokens *TokenIssuer, users repository.UserStore) *SessionVerifier {
	return &SessionVerifier{tokens: tokens, users: users}
}

func (v *SessionVerifier) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, models.Unauthenticated("Not authorized, no token")
	}

	userID, err := v.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	user, err := v.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.Unauthenticated("User not found")
	}
	if err != nil {
		return nil, models.Unexpected("Error loading user", err)
	}
	return user, nil
}
