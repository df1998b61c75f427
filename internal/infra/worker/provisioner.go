package worker

import (
	"context"
	"errors"
	"fmt"

	"vm-provisioning-bot/internal/domain"
	"vm-provisioning-bot/internal/domain/model"
	"vm-provisioning-bot/internal/usecase"
)

var _ usecase.ProvisionUseCase = (*Provisioner)(nil)

// Provisioner runs provisioning chains on a Pool so that only a bounded
// number of them talk to the cloud API at once.
type Provisioner struct {
	inner usecase.ProvisionUseCase
	pool  *Pool
}

func NewProvisioner(inner usecase.ProvisionUseCase, pool *Pool) *Provisioner {
	return &Provisioner{inner: inner, pool: pool}
}

type outcome struct {
	res *model.ProvisionResult
	err error
}

// Provision blocks until the chain has run or ctx is done. A full pool
// yields an error matching domain.ErrRateLimited and nothing is created.
func (p *Provisioner) Provision(ctx context.Context, req model.ProvisionRequest) (*model.ProvisionResult, error) {
	done := make(chan outcome, 1)
	err := p.pool.Submit(func(context.Context) error {
		// the caller's ctx carries the request deadline and trace fields
		if err := ctx.Err(); err != nil {
			done <- outcome{err: err}
			return err
		}
		res, err := p.inner.Provision(ctx, req)
		done <- outcome{res: res, err: err}
		return err
	})
	if errors.Is(err, ErrQueueFull) {
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	if err != nil {
		return nil, err
	}

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
