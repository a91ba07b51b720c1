package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"area-meter/internal/domain/entity"
	"area-meter/internal/infrastructure/storage"
)

func TestSessionService_BeginUploadAndCancel(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository(), DefaultOptions())
	ctx := context.Background()

	sess, err := svc.BeginUpload(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingDataset, sess.State)

	sess, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, sess.State)
}

func TestSessionService_Settings(t *testing.T) {
	base := DefaultOptions()
	base.Workers = 3
	svc := NewSessionService(storage.NewMemorySessionRepository(), base)
	ctx := context.Background()

	sess, err := svc.ToggleOverwrite(ctx, 2, 20)
	require.NoError(t, err)
	require.True(t, sess.OverwriteOr(false))

	sess, err = svc.SetSpace(ctx, 2, 20, entity.SpaceAbsolute)
	require.NoError(t, err)
	require.True(t, sess.OverwriteOr(false))

	opts := svc.Options(sess)
	require.True(t, opts.Overwrite)
	require.Equal(t, entity.SpaceAbsolute, opts.Space)
	require.Equal(t, 3, opts.Workers)
}

func TestSessionService_NewSessionInheritsDefaults(t *testing.T) {
	base := DefaultOptions()
	base.Space = entity.SpaceAbsolute
	base.Overwrite = true
	svc := NewSessionService(storage.NewMemorySessionRepository(), base)
	ctx := context.Background()

	sess, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	opts := svc.Options(sess)
	require.True(t, opts.Overwrite)
	require.Equal(t, entity.SpaceAbsolute, opts.Space)

	// первое переключение отталкивается от настройки по умолчанию
	sess, err = svc.ToggleOverwrite(ctx, 3, 30)
	require.NoError(t, err)
	require.False(t, svc.Options(sess).Overwrite)
	require.Equal(t, entity.SpaceAbsolute, svc.Options(sess).Space)
}
