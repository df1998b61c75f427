//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm-provisioning-bot/internal/domain"
	"vm-provisioning-bot/internal/domain/model"
)

func testRequest() model.ProvisionRequest {
	return model.ProvisionRequest{ResourceGroupName: "rg1", NetworkName: "net1", VMName: "vm1", Location: "eastus"}
}

func TestProvision_RunsStepsInOrder(t *testing.T) {
	t.Parallel()
	cloud := &fakeCloud{}
	uc := NewProvisionUseCase(cloud, testSettings(), nopLogger())

	res, err := uc.Provision(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"CreateResourceGroup",
		"CreateVirtualNetwork",
		"GetSubnet",
		"CreateNetworkInterface",
		"CreateVirtualMachine",
	}, cloud.calls)
	assert.Equal(t, "/rg/rg1", res.ResourceGroupID)
	assert.Equal(t, "/rg/rg1/vnet/net1", res.NetworkID)
	assert.Equal(t, "/rg/rg1/vnet/net1/subnet/default", res.SubnetID)
	assert.Equal(t, "/rg/rg1/nic/vm1-nic", res.NetworkInterfaceID)
	assert.Equal(t, "/rg/rg1/vm/vm1", res.VirtualMachineID)
}

func TestProvision_PassesFixedParameters(t *testing.T) {
	t.Parallel()
	cloud := &fakeCloud{}
	uc := NewProvisionUseCase(cloud, testSettings(), nopLogger())

	_, err := uc.Provision(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/16", cloud.lastVNet.AddressSpace)
	assert.Equal(t, "default", cloud.lastVNet.SubnetName)
	assert.Equal(t, "eastus", cloud.lastVNet.Location)
	assert.Equal(t, "vm1-nic", cloud.nicName)
	assert.Equal(t, "Standard_DS1_v2", cloud.lastVM.Size)
	assert.Equal(t, "Canonical", cloud.lastVM.ImagePublisher)
	assert.Equal(t, "azureuser", cloud.lastVM.AdminUsername)
	assert.Equal(t, "secret", cloud.lastVM.AdminPassword)
	assert.Equal(t, "vm1-osdisk", cloud.lastVM.OSDiskName)
	assert.Equal(t, "/rg/rg1/nic/vm1-nic", cloud.lastVM.NetworkInterfaceID, "vm must reference the nic created before it")
}

func TestProvision_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	cases := []struct {
		failOn string
		step   string
		calls  int
	}{
		{"CreateResourceGroup", StepResourceGroup, 1},
		{"CreateVirtualNetwork", StepVirtualNetwork, 2},
		{"GetSubnet", StepNetworkInterface, 3},
		{"CreateNetworkInterface", StepNetworkInterface, 4},
		{"CreateVirtualMachine", StepVirtualMachine, 5},
	}
	for _, c := range cases {
		c := c
		t.Run(c.failOn, func(t *testing.T) {
			t.Parallel()
			cause := errors.New("quota exceeded")
			cloud := &fakeCloud{failOn: c.failOn, err: cause}
			uc := NewProvisionUseCase(cloud, testSettings(), nopLogger())

			_, err := uc.Provision(context.Background(), testRequest())

			require.Error(t, err)
			assert.Len(t, cloud.calls, c.calls, "no call may follow the failing one")
			assert.ErrorIs(t, err, cause)
			assert.ErrorIs(t, err, domain.ErrProvisioningFailed)

			var stepErr *domain.ProvisionStepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, c.step, stepErr.Step)
			assert.Contains(t, err.Error(), "quota exceeded")
		})
	}
}

func TestProvision_KeepsPartialResult(t *testing.T) {
	t.Parallel()
	cloud := &fakeCloud{failOn: "CreateVirtualMachine"}
	uc := NewProvisionUseCase(cloud, testSettings(), nopLogger())

	res, err := uc.Provision(context.Background(), testRequest())

	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "/rg/rg1/nic/vm1-nic", res.NetworkInterfaceID, "earlier resources are reported, not rolled back")
	assert.Empty(t, res.VirtualMachineID)
}
