package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"catalog/internal/models"
	"catalog/internal/notify"
	"catalog/internal/repository"
)

type authFixture struct {
	users    *repository.MemoryUserStore
	tokens   *TokenIssuer
	notifier *notify.MockNotifier
	auth     *Authenticator
	now      time.Time
}

func (f *authFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newAuthFixture(t *testing.T, echo bool) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    repository.NewMemoryUserStore(),
		notifier: notify.NewMockNotifier(gomock.NewController(t)),
		now:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.tokens = NewTokenIssuer("test-secret", "catalog", 30*24*time.Hour)
	f.tokens.now = clock
	f.auth = NewAuthenticator(f.users, f.tokens, f.notifier, OTPConfig{Length: 6, TTL: 10 * time.Minute, Echo: echo}, zap.NewNop())
	f.auth.now = clock
	return f
}

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestRequestCode_CreatesUserOnce(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), "alice@example.com", gomock.Any(), 10*time.Minute).Return(nil).Times(2)

	first, err := f.auth.RequestCode(ctx, "  alice@example.com ")
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, first.Code)
	assert.Equal(t, f.now.Add(10*time.Minute), first.ExpiresAt)

	second, err := f.auth.RequestCode(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	user, err := f.users.FindByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, user.ID.Hex())
	assert.Equal(t, "alice@example.com", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.IsVerified)
	require.True(t, user.HasActiveCode())
	assert.Equal(t, second.Code, *user.OTP)
}

func TestRequestCode_RequiresIdentifier(t *testing.T) {
	f := newAuthFixture(t, true)

	_, err := f.auth.RequestCode(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRequestCode_DeliveryFailure(t *testing.T) {
	t.Run("echo tolerates failure", func(t *testing.T) {
		f := newAuthFixture(t, true)
		f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		issue, err := f.auth.RequestCode(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, issue.Code)
	})

	t.Run("without echo failure is surfaced", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		_, err := f.auth.RequestCode(context.Background(), "bob@example.com")
		assert.ErrorIs(t, err, models.ErrUnexpected)
	})
}

func TestRequestCode_WithoutEchoHidesCode(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	var delivered string
	f.notifier.EXPECT().SendCode(gomock.Any(), "+15551234567", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, code string, _ time.Duration) error {
			delivered = code
			return nil
		})

	issue, err := f.auth.RequestCode(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Empty(t, issue.Code)
	assert.Regexp(t, sixDigits, delivered)

	session, err := f.auth.VerifyCode(ctx, issue.UserID, delivered)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestVerifyCode_SucceedsExactlyOnce(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	issue, err := f.auth.RequestCode(ctx, "alice@example.com")
	require.NoError(t, err)

	session, err := f.auth.VerifyCode(ctx, issue.UserID, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, issue.UserID, session.User.ID)
	assert.Equal(t, "alice@example.com", session.User.EmailOrPhone)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.True(t, session.User.IsVerified)
	assert.Equal(t, f.now.Add(30*24*time.Hour), session.ExpiresAt)

	userID, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, issue.UserID, userID)

	user, err := f.users.FindByID(ctx, issue.UserID)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiry)

	_, err = f.auth.VerifyCode(ctx, issue.UserID, issue.Code)
	assert.ErrorIs(t, err, models.ErrOTPExpired)
}

func TestVerifyCode_Failures(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	issue, err := f.auth.RequestCode(ctx, "carol@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if issue.Code == wrong {
		wrong = "111111"
	}

	_, err = f.auth.VerifyCode(ctx, "", issue.Code)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.auth.VerifyCode(ctx, issue.UserID, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.auth.VerifyCode(ctx, "not-an-id", issue.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.auth.VerifyCode(ctx, "65f000000000000000000000", issue.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.auth.VerifyCode(ctx, issue.UserID, wrong)
	assert.ErrorIs(t, err, models.ErrInvalidCredential)
	assert.Equal(t, "Invalid OTP", models.PublicMessage(err))

	// a mismatch leaves the pending code usable
	f.advance(9 * time.Minute)
	_, err = f.auth.VerifyCode(ctx, issue.UserID, issue.Code)
	require.NoError(t, err)
}

func TestVerifyCode_AfterExpiry(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	issue, err := f.auth.RequestCode(ctx, "dave@example.com")
	require.NoError(t, err)

	f.advance(10*time.Minute + time.Second)
	_, err = f.auth.VerifyCode(ctx, issue.UserID, issue.Code)
	assert.ErrorIs(t, err, models.ErrOTPExpired)
	assert.Equal(t, "OTP has expired", models.PublicMessage(err))
}

func TestVerifyCode_NewRequestInvalidatesPreviousCode(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	codes := []string{"123456", "654321"}
	f.auth.generate = func(int) (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	first, err := f.auth.RequestCode(ctx, "erin@example.com")
	require.NoError(t, err)
	second, err := f.auth.RequestCode(ctx, "erin@example.com")
	require.NoError(t, err)

	_, err = f.auth.VerifyCode(ctx, first.UserID, first.Code)
	assert.ErrorIs(t, err, models.ErrInvalidCredential)

	_, err = f.auth.VerifyCode(ctx, second.UserID, second.Code)
	assert.NoError(t, err)
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	f.notifier.EXPECT().SendCode(gomock.Any(), "frank@example.com", gomock.Any(), gomock.Any()).Return(nil)

	issue, err := f.auth.Register(ctx, "frank@example.com", "Frank", "s3cret")
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, issue.Code)

	user, err := f.users.FindByID(ctx, issue.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Frank", user.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
	assert.Equal(t, issue.UserID, user.Public().ID)

	_, err = f.auth.Register(ctx, "frank@example.com", "Frank again", "")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, "User already exists", models.PublicMessage(err))

	_, err = f.auth.Register(ctx, "", "Nobody", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", "catalog", time.Hour)
	token, expiresAt, err := issuer.Issue("65f1a2b3c4d5e6f708091a2b")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "65f1a2b3c4d5e6f708091a2b", userID)

	other, _, err := issuer.Issue("65f1a2b3c4d5e6f708091a2b")
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "jti makes every token unique")

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("other", "catalog", time.Hour).Parse(token)
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenIssuer("secret", "someone-else", time.Hour).Parse(token)
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer("secret", "catalog", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, models.ErrAuthentication)
		assert.Equal(t, "Token expired", models.PublicMessage(err))
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"userId": "65f1a2b3c4d5e6f708091a2b",
			"exp":    time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(unsigned)
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})
}

func TestSessionVerifier(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserStore()
	user := &models.User{EmailOrPhone: "gina@example.com", Name: "Gina", Role: models.RoleUser}
	require.NoError(t, users.Create(ctx, user))

	tokens := NewTokenIssuer("secret", "catalog", time.Hour)
	verifier := NewSessionVerifier(tokens, users)

	token, _, err := tokens.Issue(user.ID.Hex())
	require.NoError(t, err)

	got, err := verifier.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Gina", got.Name)

	_, err = verifier.Authenticate(ctx, "")
	assert.ErrorIs(t, err, models.ErrAuthentication)

	orphan, _, err := tokens.Issue("65f000000000000000000000")
	require.NoError(t, err)
	_, err = verifier.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, models.ErrAuthentication)
}
