package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/clinsop/pkg/security/auth"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

const testKey = "test-signing-key-with-enough-length!!"

func newTestJWT(t *testing.T, opts ...Option) *JWT {
	t.Helper()

	base := []Option{WithKey(testKey)}
	j, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return j
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "valid HMAC config",
			opts: []Option{WithKey(testKey)},
		},
		{
			name:    "missing key",
			opts:    []Option{},
			wantErr: true,
		},
		{
			name:    "key too short",
			opts:    []Option{WithKey("short")},
			wantErr: true,
		},
		{
			name:    "unsupported algorithm",
			opts:    []Option{WithKey(testKey), WithSigningMethod("none")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSignAndVerify(t *testing.T) {
	j := newTestJWT(t, WithIssuer("clinsop-test"))
	ctx := context.Background()

	token, err := j.Sign(ctx, "user-42",
		auth.WithExtra(map[string]interface{}{"email": "nurse@example.org"}))
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.GetTokenType())
	assert.NotEmpty(t, token.GetAccessToken())

	claims, err := j.Verify(ctx, token.GetAccessToken())
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "clinsop-test", claims.Issuer)
	assert.Equal(t, "nurse@example.org", claims.GetExtraString("email"))
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	j := newTestJWT(t)
	ctx := context.Background()

	_, err := j.Verify(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidToken.Code))

	_, err = j.Verify(ctx, "not.a.token")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidToken.Code))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signer := newTestJWT(t)
	verifier := newTestJWT(t, WithKey("a-completely-different-key-material!!"))
	ctx := context.Background()

	token, err := signer.Sign(ctx, "user-42")
	require.NoError(t, err)

	_, err = verifier.Verify(ctx, token.GetAccessToken())
	assert.True(t, errors.IsCode(err, errors.ErrInvalidToken.Code))
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := newTestJWT(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	token, err := j.Sign(ctx, "user-42", auth.WithExpiresAt(past))
	require.NoError(t, err)

	_, err = j.Verify(ctx, token.GetAccessToken())
	assert.True(t, errors.IsCode(err, errors.ErrTokenExpired.Code))
}

func TestRevokeAndVerify(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	j := newTestJWT(t, WithStore(store))
	ctx := context.Background()

	token, err := j.Sign(ctx, "user-42")
	require.NoError(t, err)

	_, err = j.Verify(ctx, token.GetAccessToken())
	require.NoError(t, err)

	require.NoError(t, j.Revoke(ctx, token.GetAccessToken()))

	_, err = j.Verify(ctx, token.GetAccessToken())
	assert.True(t, errors.IsCode(err, errors.ErrTokenRevoked.Code))
}

func TestRevokeWithoutStore(t *testing.T) {
	j := newTestJWT(t)

	err := j.Revoke(context.Background(), "whatever")
	assert.True(t, errors.IsCode(err, errors.ErrNotImplemented.Code))
}

func TestRefreshIssuesNewTokenID(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	j := newTestJWT(t, WithStore(store))
	ctx := context.Background()

	oldToken, err := j.Sign(ctx, "user-42",
		auth.WithExtra(map[string]interface{}{"role": "staff"}))
	require.NoError(t, err)

	oldClaims, err := j.Verify(ctx, oldToken.GetAccessToken())
	require.NoError(t, err)

	newToken, err := j.Refresh(ctx, oldToken.GetAccessToken())
	require.NoError(t, err)
	assert.NotEqual(t, oldToken.GetAccessToken(), newToken.GetAccessToken())

	// The refreshed token keeps the claims but gets a new ID, and the old
	// token is revoked.
	newClaims, err := j.Verify(ctx, newToken.GetAccessToken())
	require.NoError(t, err)
	assert.Equal(t, "user-42", newClaims.Subject)
	assert.Equal(t, "staff", newClaims.GetExtraString("role"))
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)

	_, err = j.Verify(ctx, oldToken.GetAccessToken())
	assert.True(t, errors.IsCode(err, errors.ErrTokenRevoked.Code))
}

func TestRefreshOutsideWindow(t *testing.T) {
	tiny, err := New(WithKey(testKey), WithExpired(time.Millisecond), WithMaxRefresh(time.Millisecond))
	require.NoError(t, err)
	ctx := context.Background()

	token, err := tiny.Sign(ctx, "user-42")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = tiny.Refresh(ctx, token.GetAccessToken())
	assert.True(t, errors.IsCode(err, errors.ErrSessionExpired.Code))
}

func TestIdentityKeyOverridesSubject(t *testing.T) {
	opts := NewOptions()
	opts.Key = testKey
	opts.IdentityKey = "user_id"

	j, err := New(WithOptions(opts))
	require.NoError(t, err)
	ctx := context.Background()

	token, err := j.Sign(ctx, "session-1",
		auth.WithExtra(map[string]interface{}{"user_id": "42"}))
	require.NoError(t, err)

	claims, err := j.Verify(ctx, token.GetAccessToken())
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
}
