package session

import (
	"context"
	"testing"
	"time"

	"github.com/kitarena/kitarena-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) SessionKey(accessID string) string { return "ka:session:" + accessID }

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{
		store: store,
		keyer: fakeKeyer{},
		ttl:   24 * time.Hour,
	}, store
}

func TestGenerateStoresToken(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager()

	token, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, token, store.values["ka:session:access-1"])
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager()

	token, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)

	newAccessID, newToken, err := manager.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccessID)
	assert.NotEqual(t, token, newToken)

	_, hasOld := store.values["ka:session:access-1"]
	assert.False(t, hasOld)
	assert.Equal(t, newToken, store.values["ka:session:"+newAccessID])
}

func TestRotateRejectsWrongToken(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager()

	_, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, "access-1", "forged")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateRejectsUnknownAccessID(t *testing.T) {
	manager, _ := newTestManager()
	_, _, err := manager.Rotate(context.Background(), "missing", "whatever")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestHasSession(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager()

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = manager.Generate(ctx, "access-1")
	require.NoError(t, err)

	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "access-1"))
	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)
}
