package adapter

import "context"

// VirtualNetworkSpec describes the network created for a new VM.
type VirtualNetworkSpec struct {
	Location     string
	AddressSpace string
	SubnetName   string
	SubnetPrefix string
}

// VirtualMachineSpec holds the fixed machine parameters plus the NIC to attach.
type VirtualMachineSpec struct {
	Location           string
	Size               string
	ImagePublisher     string
	ImageOffer         string
	ImageSKU           string
	ImageVersion       string
	OSDiskName         string
	AdminUsername      string
	AdminPassword      string
	NetworkInterfaceID string
}

// CloudAdapter is the port for the cloud management API. Every method blocks
// until the remote operation has finished or failed.
type CloudAdapter interface {
	CreateResourceGroup(ctx context.Context, name, location string) (id string, err error)
	CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, spec VirtualNetworkSpec) (id string, err error)
	GetSubnet(ctx context.Context, resourceGroup, network, subnet string) (id string, err error)
	CreateNetworkInterface(ctx context.Context, resourceGroup, name, location, subnetID string) (id string, err error)
	CreateVirtualMachine(ctx context.Context, resourceGroup, name string, spec VirtualMachineSpec) (id string, err error)
}
