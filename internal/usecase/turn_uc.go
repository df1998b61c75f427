package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain"
	"vm-provisioning-bot/internal/domain/model"
	"vm-provisioning-bot/internal/domain/ports/repository"
	"vm-provisioning-bot/internal/infra/logging"
	"vm-provisioning-bot/internal/infra/metrics"
)

// Compile-time check
var _ TurnUseCase = (*turnUC)(nil)

// Message is one inbound chat message.
type Message struct {
	UserID string
	Text   string
}

// TurnResult is what the user sees after a turn.
type TurnResult struct {
	Reply string
	// Step is the user's step once the turn is over.
	Step        model.Step
	Provisioned bool
}

type TurnUseCase interface {
	// Handle processes one message. On a provisioning failure it returns both
	// a result carrying the user-facing reply and an error matching
	// domain.ErrProvisioningFailed, or domain.ErrRateLimited when provisioning
	// capacity is exhausted.
	Handle(ctx context.Context, msg Message) (*TurnResult, error)
}

// Translator renders reply keys.
type Translator interface {
	T(key string, args ...any) string
}

type TurnOptions struct {
	Location string
	// ResetOnFailure clears the session when provisioning fails. When false
	// the user stays at the VM name step and can retry with another name.
	ResetOnFailure bool
	// ProvisionTimeout bounds the whole provisioning chain; zero waits forever.
	ProvisionTimeout time.Duration
	Dev              bool
}

// turnUC assumes at most one in-flight turn per user: the session is read,
// decided on and written back without any locking.
type turnUC struct {
	sessions  repository.SessionRepository
	provision ProvisionUseCase
	tr        Translator
	opts      TurnOptions
	log       *zerolog.Logger
}

func NewTurnUseCase(sessions repository.SessionRepository, provision ProvisionUseCase, tr Translator, opts TurnOptions, logger *zerolog.Logger) *turnUC {
	return &turnUC{sessions: sessions, provision: provision, tr: tr, opts: opts, log: logger}
}

func (t *turnUC) Handle(ctx context.Context, msg Message) (*TurnResult, error) {
	if msg.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	ctx = logging.WithUserID(ctx, msg.UserID)
	log := logging.With(ctx, t.log)
	defer logging.TraceDuration(log, "TurnUC.Handle")()

	cur, err := t.sessions.Get(ctx, msg.UserID)
	if err != nil {
		metrics.IncTurn(model.StepUnknown.String(), "error")
		return nil, err
	}
	if cur.Step == model.StepUnknown {
		log.Warn().Str("raw_step", cur.RawStep).Msg("stored step is not recognized")
	}

	d := Decide(*cur, msg.Text)
	switch {
	case d.Clear:
		log.Warn().Str("step", cur.Step.String()).Msg("dropping session with missing fields")
		if err := t.sessions.Delete(ctx, msg.UserID); err != nil {
			metrics.IncTurn(cur.Step.String(), "error")
			return nil, err
		}
	case d.Persist:
		if err := t.sessions.Save(ctx, &d.Session); err != nil {
			metrics.IncTurn(cur.Step.String(), "error")
			return nil, err
		}
	}

	if !d.Provision {
		log.Debug().Str("from", cur.Step.String()).Str("to", d.Session.Step.String()).Msg("turn handled")
		metrics.IncTurn(cur.Step.String(), "reply")
		return &TurnResult{Reply: t.tr.T(d.Reply.Key, d.Reply.Args...), Step: d.Session.Step}, nil
	}
	return t.runProvisioning(ctx, log, cur, d.VMName)
}

func (t *turnUC) runProvisioning(ctx context.Context, log *zerolog.Logger, s *model.Session, vmName string) (*TurnResult, error) {
	req := model.ProvisionRequest{
		ResourceGroupName: s.ResourceGroupName.Value,
		NetworkName:       s.NetworkName.Value,
		VMName:            vmName,
		Location:          t.opts.Location,
	}
	log.Info().
		Str("resource_group", logging.Redact(req.ResourceGroupName, t.opts.Dev)).
		Str("network", logging.Redact(req.NetworkName, t.opts.Dev)).
		Str("vm", logging.Redact(req.VMName, t.opts.Dev)).
		Msg("provisioning requested")

	pctx := ctx
	if t.opts.ProvisionTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, t.opts.ProvisionTimeout)
		defer cancel()
	}

	if _, err := t.provision.Provision(pctx, req); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			// nothing was created; the user retries from the same step
			log.Warn().Err(err).Msg("provisioning capacity exhausted")
			metrics.IncTurn(s.Step.String(), "busy")
			return &TurnResult{Reply: t.tr.T(ReplyProvisioningBusy), Step: s.Step}, err
		}
		step := s.Step
		if t.opts.ResetOnFailure {
			if derr := t.sessions.Delete(ctx, s.UserID); derr != nil {
				log.Error().Err(derr).Msg("failed to clear session after provisioning failure")
			} else {
				step = model.StepNone
			}
		}
		metrics.IncTurn(s.Step.String(), "provision_failed")
		return &TurnResult{Reply: t.tr.T(ReplyVMFailed, err.Error()), Step: step},
			fmt.Errorf("%w: %w", domain.ErrProvisioningFailed, err)
	}

	step := model.StepNone
	if err := t.sessions.Delete(ctx, s.UserID); err != nil {
		// the VM exists; report success and leave the stale keys to the admin API
		log.Error().Err(err).Msg("failed to clear session after provisioning")
		step = s.Step
	}
	metrics.IncTurn(s.Step.String(), "provisioned")
	return &TurnResult{
		Reply:       t.tr.T(ReplyVMCreated, req.VMName, req.ResourceGroupName, req.NetworkName),
		Step:        step,
		Provisioned: true,
	}, nil
}
