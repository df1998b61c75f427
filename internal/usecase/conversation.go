package usecase

import (
	"strings"

	"vm-provisioning-bot/internal/domain/model"
)

// Trigger substrings, matched against the lower-cased message.
const (
	triggerStart    = "crear vm"
	triggerNew      = "nuevo"
	triggerExisting = "existente"
)

// Reply keys resolved by the Translator.
const (
	ReplyStartHint                = "start_hint"
	ReplyUnrecognized             = "unrecognized"
	ReplyAskResourceGroupChoice   = "ask_resource_group_choice"
	ReplyAskNewResourceGroup      = "ask_new_resource_group"
	ReplyAskExistingResourceGroup = "ask_existing_resource_group"
	ReplyChooseNewOrExisting      = "choose_new_or_existing"
	ReplyResourceGroupCreated     = "resource_group_created"
	ReplyResourceGroupSelected    = "resource_group_selected"
	ReplyNetworkNamed             = "network_named"
	ReplyVMCreated                = "vm_created"
	ReplyVMFailed                 = "vm_failed"
	ReplyInvalidRequest           = "invalid_request"
	ReplyRateLimited              = "rate_limited"
	ReplyProvisioningBusy         = "provisioning_busy"
	ReplyInternalError            = "internal_error"
)

// Reply is a translatable message.
type Reply struct {
	Key  string
	Args []any
}

func reply(key string, args ...any) Reply { return Reply{Key: key, Args: args} }

// Decision is the outcome of one step of the dialogue.
type Decision struct {
	// Session is the state after the turn. It is only written when Persist is set.
	Session model.Session
	Persist bool
	// Clear asks the caller to drop every stored key for the user.
	Clear bool
	Reply Reply
	// Provision is set on the terminal step; the reply then depends on the
	// provisioning outcome and Reply is empty.
	Provision bool
	VMName    string
}

// Decide maps the current session and an inbound message to the next state.
// Matching is case-insensitive; names are taken verbatim from text and are
// not validated against cloud naming rules.
func Decide(cur model.Session, text string) Decision {
	lower := strings.ToLower(text)
	next := cur

	switch cur.Step {
	case model.StepNone:
		if !strings.Contains(lower, triggerStart) {
			return Decision{Session: cur, Reply: reply(ReplyStartHint)}
		}
		next.SetStep(model.StepAwaitingResourceGroupChoice)
		return Decision{Session: next, Persist: true, Reply: reply(ReplyAskResourceGroupChoice)}

	case model.StepAwaitingResourceGroupChoice:
		switch {
		case strings.Contains(lower, triggerNew):
			next.SetStep(model.StepCreatingNewResourceGroup)
			return Decision{Session: next, Persist: true, Reply: reply(ReplyAskNewResourceGroup)}
		case strings.Contains(lower, triggerExisting):
			next.SetStep(model.StepUsingExistingResourceGroup)
			return Decision{Session: next, Persist: true, Reply: reply(ReplyAskExistingResourceGroup)}
		default:
			return Decision{Session: cur, Reply: reply(ReplyChooseNewOrExisting)}
		}

	case model.StepCreatingNewResourceGroup:
		next.ResourceGroupName = model.Some(text)
		next.SetStep(model.StepAwaitingNetworkName)
		return Decision{Session: next, Persist: true, Reply: reply(ReplyResourceGroupCreated, text)}

	case model.StepUsingExistingResourceGroup:
		next.ResourceGroupName = model.Some(text)
		next.SetStep(model.StepAwaitingNetworkName)
		return Decision{Session: next, Persist: true, Reply: reply(ReplyResourceGroupSelected, text)}

	case model.StepAwaitingNetworkName:
		next.NetworkName = model.Some(text)
		next.SetStep(model.StepAwaitingVMName)
		return Decision{Session: next, Persist: true, Reply: reply(ReplyNetworkNamed, text)}

	case model.StepAwaitingVMName:
		if !cur.ResourceGroupName.Set || !cur.NetworkName.Set {
			// the step was stored without the names it depends on
			return Decision{Session: *model.NewSession(cur.UserID), Clear: true, Reply: reply(ReplyStartHint)}
		}
		return Decision{Session: cur, Provision: true, VMName: text}

	default:
		return Decision{Session: cur, Reply: reply(ReplyUnrecognized)}
	}
}
