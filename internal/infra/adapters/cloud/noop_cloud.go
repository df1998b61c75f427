package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain/ports/adapter"
)

var _ adapter.CloudAdapter = (*NoopCloudAdapter)(nil)

// NoopCloudAdapter pretends every operation succeeds and returns ARM-shaped
// IDs. It is used for local runs with cloud.provider=noop.
type NoopCloudAdapter struct {
	mu  sync.Mutex
	ops []string
	log *zerolog.Logger
}

func NewNoopCloudAdapter(logger *zerolog.Logger) *NoopCloudAdapter {
	return &NoopCloudAdapter{log: logger}
}

func (n *NoopCloudAdapter) record(ctx context.Context, op, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n.mu.Lock()
	n.ops = append(n.ops, op)
	n.mu.Unlock()
	n.log.Info().Str("op", op).Str("id", id).Msg("noop cloud operation")
	return id, nil
}

// Ops returns the operations seen so far, in order.
func (n *NoopCloudAdapter) Ops() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ops...)
}

func groupID(name string) string {
	return fmt.Sprintf("/subscriptions/noop/resourceGroups/%s", name)
}

func (n *NoopCloudAdapter) CreateResourceGroup(ctx context.Context, name, location string) (string, error) {
	return n.record(ctx, "resource_group", groupID(name))
}

func (n *NoopCloudAdapter) CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, spec adapter.VirtualNetworkSpec) (string, error) {
	id := fmt.Sprintf("%s/providers/Microsoft.Network/virtualNetworks/%s", groupID(resourceGroup), name)
	return n.record(ctx, "virtual_network", id)
}

func (n *NoopCloudAdapter) GetSubnet(ctx context.Context, resourceGroup, network, subnet string) (string, error) {
	id := fmt.Sprintf("%s/providers/Microsoft.Network/virtualNetworks/%s/subnets/%s", groupID(resourceGroup), network, subnet)
	return n.record(ctx, "subnet", id)
}

func (n *NoopCloudAdapter) CreateNetworkInterface(ctx context.Context, resourceGroup, name, location, subnetID string) (string, error) {
	id := fmt.Sprintf("%s/providers/Microsoft.Network/networkInterfaces/%s", groupID(resourceGroup), name)
	return n.record(ctx, "network_interface", id)
}

func (n *NoopCloudAdapter) CreateVirtualMachine(ctx context.Context, resourceGroup, name string, spec adapter.VirtualMachineSpec) (string, error) {
	id := fmt.Sprintf("%s/providers/Microsoft.Compute/virtualMachines/%s", groupID(resourceGroup), name)
	return n.record(ctx, "virtual_machine", id)
}
