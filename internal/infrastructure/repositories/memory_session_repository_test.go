package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/valueobjects"
)

func uploadedSession(t *testing.T) *entities.Session {
	t.Helper()
	img, err := valueobjects.RestoreImageData([]byte("item"), "image/png")
	require.NoError(t, err)

	session := entities.NewSession()
	require.NoError(t, session.Upload(img, "item.png"))
	return session
}

func TestMemorySessionRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	session := uploadedSession(t)

	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, session.ID(), found.ID())
	assert.Equal(t, "item.png", found.FileName())
}

func TestMemorySessionRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)

	_, err = repo.Update(ctx, "missing", func(*entities.Session) error { return nil })
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestMemorySessionRepository_UpdatePersistsEvenOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	session := entities.NewSession()
	require.NoError(t, repo.Save(ctx, session))

	updated, err := repo.Update(ctx, session.ID(), func(s *entities.Session) error {
		_, err := s.BeginGenerate()
		return err
	})
	require.ErrorIs(t, err, entities.ErrNoImage)
	assert.Equal(t, entities.MsgNoImage, updated.ErrorMessage())

	found, err := repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, entities.MsgNoImage, found.ErrorMessage())
}

func TestMemorySessionRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	session := uploadedSession(t)
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	found.Reset()

	again, err := repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	assert.True(t, again.HasImage())
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Millisecond)
	session := entities.NewSession()
	require.NoError(t, repo.Save(ctx, session))

	time.Sleep(5 * time.Millisecond)

	_, err := repo.FindByID(ctx, session.ID())
	assert.True(t, errors.Is(err, entities.ErrSessionNotFound))
}

func TestMemorySessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	session := entities.NewSession()
	require.NoError(t, repo.Save(ctx, session))

	require.NoError(t, repo.Delete(ctx, session.ID()))

	_, err := repo.FindByID(ctx, session.ID())
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}
