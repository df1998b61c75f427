//go:build !integration

package usecase

import (
	"testing"

	"vm-provisioning-bot/internal/domain/model"
)

func sessionAt(step model.Step) model.Session {
	s := model.NewSession("u1")
	s.SetStep(step)
	return *s
}

func TestDecide_Transitions(t *testing.T) {
	cases := []struct {
		name    string
		step    model.Step
		text    string
		next    model.Step
		persist bool
		reply   string
	}{
		{"start command", model.StepNone, "crear vm", model.StepAwaitingResourceGroupChoice, true, ReplyAskResourceGroupChoice},
		{"start command any case", model.StepNone, "Hola, quiero CREAR VM por favor", model.StepAwaitingResourceGroupChoice, true, ReplyAskResourceGroupChoice},
		{"no session, other text", model.StepNone, "hola", model.StepNone, false, ReplyStartHint},
		{"no session, near miss", model.StepNone, "crear  vm", model.StepNone, false, ReplyStartHint},
		{"choose new", model.StepAwaitingResourceGroupChoice, "uno NUEVO", model.StepCreatingNewResourceGroup, true, ReplyAskNewResourceGroup},
		{"choose existing", model.StepAwaitingResourceGroupChoice, "Existente", model.StepUsingExistingResourceGroup, true, ReplyAskExistingResourceGroup},
		{"new wins over existing", model.StepAwaitingResourceGroupChoice, "existente o nuevo", model.StepCreatingNewResourceGroup, true, ReplyAskNewResourceGroup},
		{"unrecognized choice", model.StepAwaitingResourceGroupChoice, "no sé", model.StepAwaitingResourceGroupChoice, false, ReplyChooseNewOrExisting},
		{"new group name", model.StepCreatingNewResourceGroup, "rg1", model.StepAwaitingNetworkName, true, ReplyResourceGroupCreated},
		{"existing group name", model.StepUsingExistingResourceGroup, "rg1", model.StepAwaitingNetworkName, true, ReplyResourceGroupSelected},
		{"network name", model.StepAwaitingNetworkName, "net1", model.StepAwaitingVMName, true, ReplyNetworkNamed},
		{"unknown stored step", model.StepUnknown, "crear vm", model.StepUnknown, false, ReplyUnrecognized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Decide(sessionAt(c.step), c.text)
			if d.Session.Step != c.next {
				t.Errorf("next step: want %v, got %v", c.next, d.Session.Step)
			}
			if d.Persist != c.persist {
				t.Errorf("persist: want %v, got %v", c.persist, d.Persist)
			}
			if d.Reply.Key != c.reply {
				t.Errorf("reply: want %s, got %s", c.reply, d.Reply.Key)
			}
			if d.Provision || d.Clear {
				t.Errorf("unexpected provision=%v clear=%v", d.Provision, d.Clear)
			}
		})
	}
}

func TestDecide_NamesAreStoredVerbatim(t *testing.T) {
	d := Decide(sessionAt(model.StepCreatingNewResourceGroup), "  My-RG ")
	if d.Session.ResourceGroupName != model.Some("  My-RG ") {
		t.Errorf("resource group must not be folded or trimmed, got %+v", d.Session.ResourceGroupName)
	}
	if len(d.Reply.Args) != 1 || d.Reply.Args[0] != "  My-RG " {
		t.Errorf("reply must echo the name, got %v", d.Reply.Args)
	}

	cur := sessionAt(model.StepAwaitingNetworkName)
	cur.ResourceGroupName = model.Some("My-RG")
	d = Decide(cur, "Net-ONE")
	if d.Session.NetworkName != model.Some("Net-ONE") {
		t.Errorf("network must be stored verbatim, got %+v", d.Session.NetworkName)
	}
	if d.Session.ResourceGroupName != model.Some("My-RG") {
		t.Errorf("resource group must be carried over, got %+v", d.Session.ResourceGroupName)
	}
}

func TestDecide_EmptyNamesPassThrough(t *testing.T) {
	d := Decide(sessionAt(model.StepCreatingNewResourceGroup), "")
	if !d.Persist || !d.Session.ResourceGroupName.Set || d.Session.ResourceGroupName.Value != "" {
		t.Fatalf("empty resource group must be accepted, got %+v", d)
	}

	d = Decide(sessionAt(model.StepAwaitingNetworkName), "")
	if !d.Session.NetworkName.Set || d.Session.NetworkName.Value != "" {
		t.Fatalf("empty network must be accepted, got %+v", d.Session.NetworkName)
	}

	cur := sessionAt(model.StepAwaitingVMName)
	cur.ResourceGroupName = model.Some("")
	cur.NetworkName = model.Some("")
	d = Decide(cur, "")
	if !d.Provision || d.VMName != "" {
		t.Fatalf("empty vm name must reach provisioning, got %+v", d)
	}
}

func TestDecide_TerminalStep(t *testing.T) {
	cur := sessionAt(model.StepAwaitingVMName)
	cur.ResourceGroupName = model.Some("rg1")
	cur.NetworkName = model.Some("net1")

	d := Decide(cur, "VM1")
	if !d.Provision {
		t.Fatal("expected provisioning to be requested")
	}
	if d.VMName != "VM1" {
		t.Errorf("expected verbatim vm name, got %q", d.VMName)
	}
	if d.Persist || d.Clear {
		t.Error("the vm name is never persisted")
	}
}

func TestDecide_TerminalStepWithoutNamesResets(t *testing.T) {
	cur := sessionAt(model.StepAwaitingVMName)
	cur.NetworkName = model.Some("net1")

	d := Decide(cur, "vm1")
	if d.Provision {
		t.Fatal("must not provision without a resource group")
	}
	if !d.Clear || d.Session.Step != model.StepNone {
		t.Errorf("expected the session to be cleared, got %+v", d)
	}
	if d.Reply.Key != ReplyStartHint {
		t.Errorf("expected start hint, got %s", d.Reply.Key)
	}
}
