package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"outfit-studio/internal/domain/entities"
	domainrepos "outfit-studio/internal/domain/repositories"
)

const (
	sessionKeyPrefix = "outfit-studio:session:"
	maxUpdateRetries = 5
)

// RedisSessionRepository stores sessions as JSON snapshots. Update uses
// WATCH/MULTI so concurrent requests against one session serialize.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) domainrepos.SessionRepository {
	return &RedisSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *entities.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, sessionKey(session.ID()), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) FindByID(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", entities.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return decodeSession(data)
}

func (r *RedisSessionRepository) Update(
	ctx context.Context,
	id entities.SessionID,
	fn func(*entities.Session) error,
) (*entities.Session, error) {
	key := sessionKey(id)

	var (
		result *entities.Session
		fnErr  error
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", entities.ErrSessionNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}

		session, err := decodeSession(data)
		if err != nil {
			return err
		}

		fnErr = fn(session)

		encoded, err := encodeSession(session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = session
		return nil
	}

	for range maxUpdateRetries {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("session %s: too many concurrent updates", id)
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id entities.SessionID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func sessionKey(id entities.SessionID) string {
	return sessionKeyPrefix + string(id)
}

func encodeSession(session *entities.Session) ([]byte, error) {
	data, err := json.Marshal(session.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (*entities.Session, error) {
	var snapshot entities.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return entities.RestoreSession(snapshot)
}
