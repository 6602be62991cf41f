package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	chat "github.com/zhouzirui/healthdesk/internal/service/chat"
)

func TestRegistryGetSession(t *testing.T) {
	reg := chat.NewRegistry()
	ctx := context.Background()

	session, info, err := reg.CreateSession(ctx, assistant.Seed()[0], &fakeTransport{}, nil, chat.Options{})
	require.NoError(t, err)
	assert.Equal(t, session.ID(), info.ID)
	assert.Equal(t, assistant.DefaultProfileID, info.ProfileID)

	got, err := reg.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGetSessionNotFound(t *testing.T) {
	reg := chat.NewRegistry()
	ctx := context.Background()

	_, err := reg.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
	_, err = reg.Info(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestRegistryRequiresProfile(t *testing.T) {
	reg := chat.NewRegistry()
	_, _, err := reg.CreateSession(context.Background(), assistant.Profile{}, &fakeTransport{}, nil, chat.Options{})
	assert.ErrorIs(t, err, chat.ErrProfileRequired)
}

func TestRegistryRemoveClosesSession(t *testing.T) {
	reg := chat.NewRegistry()
	ctx := context.Background()

	session, info, err := reg.CreateSession(ctx, assistant.Seed()[0], &fakeTransport{}, nil, chat.Options{})
	require.NoError(t, err)
	session.Open()

	require.NoError(t, reg.Remove(ctx, info.ID))
	assert.Equal(t, chat.StateClosed, session.State())
	assert.Equal(t, 0, reg.Len())
	assert.ErrorIs(t, reg.Remove(ctx, info.ID), chat.ErrSessionNotFound)
}
