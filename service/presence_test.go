package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceToggleVisible(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, nil)
	svc := NewPresenceService(users)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	user, err := svc.Toggle(ctx, alice.ID, true)
	require.NoError(t, err)
	require.NotNil(t, user.IsOnline)
	assert.True(t, *user.IsOnline)
	assert.Nil(t, user.LastActivity)

	user, err = svc.Toggle(ctx, alice.ID, false)
	require.NoError(t, err)
	require.NotNil(t, user.IsOnline)
	assert.False(t, *user.IsOnline)
	require.NotNil(t, user.LastActivity)
}

func TestPresenceToggleHidden(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, nil)
	svc := NewPresenceService(users)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	alice.Settings.LastActivityMode = false
	require.NoError(t, db.Save(alice).Error)

	// Hiding last activity keeps the stored status indeterminate even
	// through online/offline flips.
	user, err := svc.Toggle(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Nil(t, user.IsOnline)

	user, err = svc.Toggle(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Nil(t, user.IsOnline)
	assert.Nil(t, user.LastActivity)
}

func TestPresenceToggleUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewPresenceService(NewUserService(db, nil))

	_, err := svc.Toggle(context.Background(), "missing", true)
	assert.Error(t, err)
}
