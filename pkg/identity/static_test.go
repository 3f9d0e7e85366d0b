package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	provider := NewStaticProvider(&User{ID: "u_1", Email: "test@example.com"}, "tok_1")

	user, err := provider.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u_1", user.ID)

	token, err := provider.IDToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "tok_1", token)

	require.NoError(t, provider.SignOut(ctx))

	_, err = provider.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = provider.IDToken(ctx, true)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStaticProviderEmptyToken(t *testing.T) {
	provider := NewStaticProvider(&User{ID: "u_1"}, "")

	_, err := provider.IDToken(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoToken)
}
