package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/events"
	"github.com/spec-kit/inventory-console/internal/repository"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

type fixture struct {
	provider *Provider
	changes  []events.SessionChangedPayload
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{redis: mr}
	dispatcher := events.NewInMemoryDispatcher()
	f.provider = NewProvider(Dependencies{
		Accounts:      repository.NewMemoryAccountRepository(),
		Sessions:      NewRedisSessionStore(client, "test:session"),
		Tokens:        auth.NewTokenManager("secret", time.Hour),
		Dispatcher:    dispatcher,
		AllowedDomain: "presidencyuniversity.in",
		BcryptCost:    4,
	})
	f.provider.OnSessionChange(func(_ context.Context, e events.Event) error {
		f.changes = append(f.changes, e.Payload.(events.SessionChangedPayload))
		return nil
	})

	_, err := f.provider.Register(context.Background(), "John_2101@presidencyuniversity.in", "s3cret")
	require.NoError(t, err)
	return f
}

func TestSignInCreatesPersistentSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.provider.SignIn(ctx, "  JOHN_2101@presidencyuniversity.in ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "john_2101@presidencyuniversity.in", sess.Identity.Email)

	sid, err := f.provider.ParseToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Identity.SessionID, sid)

	require.Len(t, f.changes, 1)
	assert.Equal(t, sid, f.changes[0].SessionID)
	require.NotNil(t, f.changes[0].Identity)

	looked, err := f.provider.Lookup(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, looked)
	assert.Equal(t, "john_2101@presidencyuniversity.in", looked.Email)
	assert.True(t, f.redis.Exists("test:session:"+sid))
}

func TestSignInFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.SignIn(ctx, "", "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.provider.SignIn(ctx, "john@gmail.com", "s3cret")
	assert.True(t, apperrors.IsCode(err, "AUTH_FAILED"))
	assert.Contains(t, err.Error(), "@presidencyuniversity.in")

	_, err = f.provider.SignIn(ctx, "john_2101@presidencyuniversity.in", "wrong")
	assert.True(t, apperrors.IsCode(err, "AUTH_FAILED"))

	_, err = f.provider.SignIn(ctx, "ghost@presidencyuniversity.in", "s3cret")
	assert.True(t, apperrors.IsCode(err, "AUTH_FAILED"))

	assert.Empty(t, f.changes)
}

func TestSignOutAnnouncesNoIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.provider.SignIn(ctx, "john_2101@presidencyuniversity.in", "s3cret")
	require.NoError(t, err)
	require.NoError(t, f.provider.SignOut(ctx, sess.Identity.SessionID))

	require.Len(t, f.changes, 2)
	assert.Nil(t, f.changes[1].Identity)

	restored, err := f.provider.Restore(ctx, sess.Identity.SessionID)
	require.NoError(t, err)
	assert.Nil(t, restored)
	assert.Len(t, f.changes, 2)
}

func TestRestoreAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.provider.SignIn(ctx, "john_2101@presidencyuniversity.in", "s3cret")
	require.NoError(t, err)

	restored, err := f.provider.Restore(ctx, sess.Identity.SessionID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Len(t, f.changes, 2)

	f.redis.FastForward(2 * time.Hour)
	restored, err = f.provider.Restore(ctx, sess.Identity.SessionID)
	require.NoError(t, err)
	assert.Nil(t, restored)
}
