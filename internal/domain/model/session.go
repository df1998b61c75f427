package model

// Step is the position of a user in the provisioning dialogue.
type Step int

const (
	StepNone Step = iota
	StepAwaitingResourceGroupChoice
	StepCreatingNewResourceGroup
	StepUsingExistingResourceGroup
	StepAwaitingNetworkName
	StepAwaitingVMName
	// StepUnknown marks a stored value that no longer maps to a known step.
	StepUnknown
)

// Wire values are shared with sessions written by earlier deployments.
var stepWire = map[Step]string{
	StepAwaitingResourceGroupChoice: "awaiting_resource_group",
	StepCreatingNewResourceGroup:    "creating_resource_group",
	StepUsingExistingResourceGroup:  "awaiting_existing_resource_group",
	StepAwaitingNetworkName:         "creating_network",
	StepAwaitingVMName:              "creating_vm",
}

var stepNames = map[Step]string{
	StepNone:                        "none",
	StepAwaitingResourceGroupChoice: "awaiting_resource_group_choice",
	StepCreatingNewResourceGroup:    "creating_new_resource_group",
	StepUsingExistingResourceGroup:  "using_existing_resource_group",
	StepAwaitingNetworkName:         "awaiting_network_name",
	StepAwaitingVMName:              "awaiting_vm_name",
	StepUnknown:                     "unknown",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Wire returns the value stored in the session store. StepNone and
// StepUnknown have no stored form.
func (s Step) Wire() (string, bool) {
	v, ok := stepWire[s]
	return v, ok
}

// ParseStep maps a stored value back to a Step. An empty value is StepNone;
// anything unrecognized is StepUnknown.
func ParseStep(v string) Step {
	if v == "" {
		return StepNone
	}
	for s, w := range stepWire {
		if w == v {
			return s
		}
	}
	return StepUnknown
}

// OptionalString distinguishes "never supplied" from an empty name.
type OptionalString struct {
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

func Some(v string) OptionalString { return OptionalString{Value: v, Set: true} }

// Session is one user's in-progress provisioning dialogue.
type Session struct {
	UserID            string         `json:"user_id"`
	Step              Step           `json:"-"`
	StepName          string         `json:"step"`
	RawStep           string         `json:"raw_step,omitempty"`
	ResourceGroupName OptionalString `json:"resource_group_name"`
	NetworkName       OptionalString `json:"network_name"`
}

// NewSession returns an empty session for userID.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, Step: StepNone, StepName: StepNone.String()}
}

// Exists reports whether the session is expected to be present in the store.
func (s *Session) Exists() bool { return s.Step != StepNone }

// SetStep updates the step and its exported name.
func (s *Session) SetStep(step Step) {
	s.Step = step
	s.StepName = step.String()
	if w, ok := step.Wire(); ok {
		s.RawStep = w
	}
}

// ProvisionRequest is built from a completed session plus the VM name from
// the final message. It is never persisted.
type ProvisionRequest struct {
	ResourceGroupName string
	NetworkName       string
	VMName            string
	Location          string
}

// ProvisionResult collects resource IDs as the provisioning chain runs.
type ProvisionResult struct {
	ResourceGroupID    string
	NetworkID          string
	SubnetID           string
	NetworkInterfaceID string
	VirtualMachineID   string
}

// NetworkInterfaceName derives the NIC name from the VM name.
func NetworkInterfaceName(vmName string) string { return vmName + "-nic" }
