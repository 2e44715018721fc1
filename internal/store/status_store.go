package store

import (
	"context"

	"book-search/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks book-search/internal/store StatusStore

// StatusStore persists the mirrored status of search sessions.
type StatusStore interface {
	SetStatus(ctx context.Context, status models.SessionStatus) error
	GetStatus(ctx context.Context, sessionID string) (models.SessionStatus, bool, error)
}
