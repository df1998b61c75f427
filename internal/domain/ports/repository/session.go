package repository

import (
	"context"

	"vm-provisioning-bot/internal/domain/model"
)

// SessionRepository is the port for per-user provisioning dialogue state.
// Implementations guarantee single-key atomicity only; there is no locking
// between a read and the following write for the same user.
type SessionRepository interface {
	// Get returns the stored session, or a StepNone session when nothing is stored.
	Get(ctx context.Context, userID string) (*model.Session, error)
	// Save writes the step and every field that is set, in one round trip.
	Save(ctx context.Context, s *model.Session) error
	// Delete removes every key belonging to userID.
	Delete(ctx context.Context, userID string) error
}
