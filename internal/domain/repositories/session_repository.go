package repositories

import (
	"context"

	"outfit-studio/internal/domain/entities"
)

type SessionRepository interface {
	Save(ctx context.Context, session *entities.Session) error
	FindByID(ctx context.Context, id entities.SessionID) (*entities.Session, error)

	// Update runs fn against the stored session atomically and persists the
	// result whether or not fn fails. fn's error is returned as is.
	Update(ctx context.Context, id entities.SessionID, fn func(*entities.Session) error) (*entities.Session, error)

	Delete(ctx context.Context, id entities.SessionID) error
}
