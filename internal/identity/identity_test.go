package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/auth"
	"po-bridge-api-server/internal/database"
	"po-bridge-api-server/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	auth.PasswordCost = bcrypt.MinCost
	return NewService(
		database.NewMemoryUserStore(),
		session.NewMemoryStore(),
		auth.NewIssuer("test-secret", time.Hour),
		nil,
	)
}

func TestSignUpSignInResolve(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.SignUp(ctx, "Buyer@Example.com", "password1", "Kim")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", created.Email)
	assert.NotEmpty(t, created.Token)

	sess, err := svc.SignIn(ctx, "buyer@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, sess.UserID)
	assert.NotEqual(t, created.SessionID, sess.SessionID)

	resolved, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, resolved.UserID)
	assert.Equal(t, sess.SessionID, resolved.SessionID)
}

func TestSignUpRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.SignUp(ctx, "buyer@example.com", "password1", "")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "BUYER@example.com", "password2", "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.SignUp(ctx, "not-an-email", "password1", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// display-name forms are rejected here just as at the HTTP edge
	_, err = svc.SignUp(ctx, "Buyer <other@example.com>", "password1", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.SignUp(ctx, "   ", "password1", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.SignUp(ctx, "other@example.com", "short", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.SignUp(ctx, "buyer@example.com", "password1", "")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "buyer@example.com", "password2")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.SignIn(ctx, "nobody@example.com", "password1")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestSignOutEndsSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	sess, err := svc.SignUp(ctx, "buyer@example.com", "password1", "")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, sess))

	_, err = svc.Resolve(ctx, sess.Token)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestResolveRejectsGarbage(t *testing.T) {
	_, err := newService(t).Resolve(context.Background(), "garbage")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

type failingSessions struct{ session.Store }

func (failingSessions) Create(context.Context, string, string, time.Duration) error {
	return errors.New("redis down")
}

func TestSignInSessionStoreFailureIsDependencyError(t *testing.T) {
	ctx := context.Background()
	users := database.NewMemoryUserStore()
	auth.PasswordCost = bcrypt.MinCost
	ok := NewService(users, session.NewMemoryStore(), auth.NewIssuer("s", time.Hour), nil)
	_, err := ok.SignUp(ctx, "buyer@example.com", "password1", "")
	require.NoError(t, err)

	broken := NewService(users, failingSessions{}, auth.NewIssuer("s", time.Hour), nil)
	_, err = broken.SignIn(ctx, "buyer@example.com", "password1")
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}
