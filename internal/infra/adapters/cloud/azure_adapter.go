package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/config"
	"vm-provisioning-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CloudAdapter = (*AzureAdapter)(nil)

// AzureAdapter implements adapter.CloudAdapter with the Azure Resource
// Manager SDK. Long-running operations are polled until they finish.
type AzureAdapter struct {
	groups  *armresources.ResourceGroupsClient
	vnets   *armnetwork.VirtualNetworksClient
	subnets *armnetwork.SubnetsClient
	nics    *armnetwork.InterfacesClient
	vms     *armcompute.VirtualMachinesClient
	log     *zerolog.Logger
}

// NewAzureAdapter builds the ARM clients once; they are safe for concurrent
// use and shared by every request.
func NewAzureAdapter(cfg config.AzureConfig, logger *zerolog.Logger) (*AzureAdapter, error) {
	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return newAzureAdapter(cfg.SubscriptionID, cred, logger)
}

func newAzureAdapter(subscriptionID string, cred azcore.TokenCredential, logger *zerolog.Logger) (*AzureAdapter, error) {
	groups, err := armresources.NewResourceGroupsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("resource groups client: %w", err)
	}
	vnets, err := armnetwork.NewVirtualNetworksClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("virtual networks client: %w", err)
	}
	subnets, err := armnetwork.NewSubnetsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("subnets client: %w", err)
	}
	nics, err := armnetwork.NewInterfacesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("network interfaces client: %w", err)
	}
	vms, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("virtual machines client: %w", err)
	}
	return &AzureAdapter{groups: groups, vnets: vnets, subnets: subnets, nics: nics, vms: vms, log: logger}, nil
}

func (a *AzureAdapter) CreateResourceGroup(ctx context.Context, name, location string) (string, error) {
	resp, err := a.groups.CreateOrUpdate(ctx, name, resourceGroupParams(location), nil)
	if err != nil {
		return "", a.wrap("create resource group", name, err)
	}
	return deref(resp.ID), nil
}

func (a *AzureAdapter) CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, spec adapter.VirtualNetworkSpec) (string, error) {
	poller, err := a.vnets.BeginCreateOrUpdate(ctx, resourceGroup, name, virtualNetworkParams(spec), nil)
	if err != nil {
		return "", a.wrap("create virtual network", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", a.wrap("create virtual network", name, err)
	}
	return deref(resp.ID), nil
}

func (a *AzureAdapter) GetSubnet(ctx context.Context, resourceGroup, network, subnet string) (string, error) {
	resp, err := a.subnets.Get(ctx, resourceGroup, network, subnet, nil)
	if err != nil {
		return "", a.wrap("get subnet", network+"/"+subnet, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("get subnet %q: response has no id", network+"/"+subnet)
	}
	return *resp.ID, nil
}

func (a *AzureAdapter) CreateNetworkInterface(ctx context.Context, resourceGroup, name, location, subnetID string) (string, error) {
	poller, err := a.nics.BeginCreateOrUpdate(ctx, resourceGroup, name, networkInterfaceParams(location, subnetID), nil)
	if err != nil {
		return "", a.wrap("create network interface", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", a.wrap("create network interface", name, err)
	}
	return deref(resp.ID), nil
}

func (a *AzureAdapter) CreateVirtualMachine(ctx context.Context, resourceGroup, name string, spec adapter.VirtualMachineSpec) (string, error) {
	poller, err := a.vms.BeginCreateOrUpdate(ctx, resourceGroup, name, virtualMachineParams(name, spec), nil)
	if err != nil {
		return "", a.wrap("create virtual machine", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", a.wrap("create virtual machine", name, err)
	}
	return deref(resp.ID), nil
}

// armError keeps the short ARM error code in the message; the full
// ResponseError text spans many lines and includes request dumps.
type armError struct {
	op, name string
	resp     *azcore.ResponseError
}

func (e *armError) Error() string {
	return fmt.Sprintf("%s %q: %s (HTTP %d)", e.op, e.name, e.resp.ErrorCode, e.resp.StatusCode)
}

func (e *armError) Unwrap() error { return e.resp }

func (a *AzureAdapter) wrap(op, name string, err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		a.log.Warn().
			Str("op", op).
			Str("error_code", respErr.ErrorCode).
			Int("status", respErr.StatusCode).
			Msg("azure request failed")
		return &armError{op: op, name: name, resp: respErr}
	}
	return fmt.Errorf("%s %q: %w", op, name, err)
}

func resourceGroupParams(location string) armresources.ResourceGroup {
	return armresources.ResourceGroup{Location: to.Ptr(location)}
}

func virtualNetworkParams(spec adapter.VirtualNetworkSpec) armnetwork.VirtualNetwork {
	return armnetwork.VirtualNetwork{
		Location: to.Ptr(spec.Location),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: []*string{to.Ptr(spec.AddressSpace)},
			},
			Subnets: []*armnetwork.Subnet{{
				Name: to.Ptr(spec.SubnetName),
				Properties: &armnetwork.SubnetPropertiesFormat{
					AddressPrefix: to.Ptr(spec.SubnetPrefix),
				},
			}},
		},
	}
}

func networkInterfaceParams(location, subnetID string) armnetwork.Interface {
	return armnetwork.Interface{
		Location: to.Ptr(location),
		Properties: &armnetwork.InterfacePropertiesFormat{
			IPConfigurations: []*armnetwork.InterfaceIPConfiguration{{
				Name: to.Ptr("default"),
				Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
					Subnet:                    &armnetwork.Subnet{ID: to.Ptr(subnetID)},
					PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
				},
			}},
		},
	}
}

func virtualMachineParams(name string, spec adapter.VirtualMachineSpec) armcompute.VirtualMachine {
	return armcompute.VirtualMachine{
		Location: to.Ptr(spec.Location),
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(spec.Size)),
			},
			StorageProfile: &armcompute.StorageProfile{
				ImageReference: &armcompute.ImageReference{
					Publisher: to.Ptr(spec.ImagePublisher),
					Offer:     to.Ptr(spec.ImageOffer),
					SKU:       to.Ptr(spec.ImageSKU),
					Version:   to.Ptr(spec.ImageVersion),
				},
				OSDisk: &armcompute.OSDisk{
					Name:         to.Ptr(spec.OSDiskName),
					CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesFromImage),
				},
			},
			OSProfile: &armcompute.OSProfile{
				ComputerName:  to.Ptr(name),
				AdminUsername: to.Ptr(spec.AdminUsername),
				AdminPassword: to.Ptr(spec.AdminPassword),
			},
			NetworkProfile: &armcompute.NetworkProfile{
				NetworkInterfaces: []*armcompute.NetworkInterfaceReference{{
					ID: to.Ptr(spec.NetworkInterfaceID),
				}},
			},
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
