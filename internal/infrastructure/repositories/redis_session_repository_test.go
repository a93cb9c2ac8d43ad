package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfit-studio/internal/domain/entities"
)

func newTestRedisRepository(t *testing.T) *RedisSessionRepository {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	return &RedisSessionRepository{client: client, ttl: time.Minute}
}

func TestSessionCodec(t *testing.T) {
	session := uploadedSession(t)
	ticket, err := session.BeginGenerate()
	require.NoError(t, err)

	data, err := encodeSession(session)
	require.NoError(t, err)

	decoded, err := decodeSession(data)
	require.NoError(t, err)

	assert.Equal(t, session.ID(), decoded.ID())
	assert.True(t, decoded.IsLoading())
	assert.Equal(t, ticket.Generation, decoded.Generation())
	assert.Equal(t, session.Image().Data(), decoded.Image().Data())
}

func TestDecodeSession_Invalid(t *testing.T) {
	_, err := decodeSession([]byte("{"))
	assert.Error(t, err)

	_, err = decodeSession([]byte(`{"id":""}`))
	assert.Error(t, err)
}

func TestRedisSessionRepository(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()

	session := uploadedSession(t)
	require.NoError(t, repo.Save(ctx, session))
	t.Cleanup(func() { repo.Delete(ctx, session.ID()) })

	found, err := repo.FindByID(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, "item.png", found.FileName())

	updated, err := repo.Update(ctx, session.ID(), func(s *entities.Session) error {
		_, err := s.BeginGenerateMore()
		return err
	})
	require.NoError(t, err)
	assert.True(t, updated.IsGeneratingMore())

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestRedisSessionRepository_ConcurrentBeginAllowsOne(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()

	session := uploadedSession(t)
	require.NoError(t, repo.Save(ctx, session))
	t.Cleanup(func() { repo.Delete(ctx, session.ID()) })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, session.ID(), func(s *entities.Session) error {
				_, err := s.BeginGenerate()
				return err
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}
