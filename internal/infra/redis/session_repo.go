package redis

import (
	"context"
	"fmt"
	"time"

	"vm-provisioning-bot/internal/domain/model"
	"vm-provisioning-bot/internal/domain/ports/repository"
	"vm-provisioning-bot/internal/infra/metrics"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

const (
	resourceGroupSuffix = "_resource_group"
	networkSuffix       = "_network"
)

// SessionRepo stores a provisioning dialogue as three plain string keys:
// <user> holds the step, <user>_resource_group and <user>_network the names.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

// NewSessionRepo returns a repository whose keys expire after ttl; zero
// keeps them until they are deleted.
func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKeys(userID string) (step, resourceGroup, network string) {
	return userID, userID + resourceGroupSuffix, userID + networkSuffix
}

func (r *SessionRepo) Get(ctx context.Context, userID string) (*model.Session, error) {
	stepKey, rgKey, netKey := sessionKeys(userID)
	vals, err := r.client.MGet(ctx, stepKey, rgKey, netKey)
	if err != nil {
		metrics.IncSessionOp("get", "error")
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := model.NewSession(userID)
	raw, ok := asString(vals, 0)
	if !ok {
		metrics.IncSessionOp("get", "miss")
		return s, nil
	}
	s.SetStep(model.ParseStep(raw))
	s.RawStep = raw
	if v, ok := asString(vals, 1); ok {
		s.ResourceGroupName = model.Some(v)
	}
	if v, ok := asString(vals, 2); ok {
		s.NetworkName = model.Some(v)
	}
	metrics.IncSessionOp("get", "hit")
	return s, nil
}

func asString(vals []interface{}, i int) (string, bool) {
	if i >= len(vals) || vals[i] == nil {
		return "", false
	}
	v, ok := vals[i].(string)
	return v, ok
}

func (r *SessionRepo) Save(ctx context.Context, s *model.Session) error {
	wire, ok := s.Step.Wire()
	if !ok {
		return fmt.Errorf("save session: step %s has no stored form", s.Step)
	}
	stepKey, rgKey, netKey := sessionKeys(s.UserID)
	values := map[string]string{stepKey: wire}
	if s.ResourceGroupName.Set {
		values[rgKey] = s.ResourceGroupName.Value
	}
	if s.NetworkName.Set {
		values[netKey] = s.NetworkName.Value
	}
	if err := r.client.SetMany(ctx, values, r.ttl); err != nil {
		metrics.IncSessionOp("save", "error")
		return fmt.Errorf("save session: %w", err)
	}
	metrics.IncSessionOp("save", "ok")
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, userID string) error {
	stepKey, rgKey, netKey := sessionKeys(userID)
	if err := r.client.Del(ctx, stepKey, rgKey, netKey); err != nil {
		metrics.IncSessionOp("delete", "error")
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.IncSessionOp("delete", "ok")
	return nil
}
