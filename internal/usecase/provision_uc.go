package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain"
	"vm-provisioning-bot/internal/domain/model"
	"vm-provisioning-bot/internal/domain/ports/adapter"
	"vm-provisioning-bot/internal/infra/logging"
	"vm-provisioning-bot/internal/infra/metrics"
)

// Names of the provisioning steps, in execution order.
const (
	StepResourceGroup    = "resource_group"
	StepVirtualNetwork   = "virtual_network"
	StepNetworkInterface = "network_interface"
	StepVirtualMachine   = "virtual_machine"
)

// Compile-time check
var _ ProvisionUseCase = (*provisionUC)(nil)

type ProvisionUseCase interface {
	// Provision runs the chain resource group, virtual network, network
	// interface, virtual machine. It stops at the first failure and returns
	// a *domain.ProvisionStepError; nothing created before it is rolled back.
	Provision(ctx context.Context, req model.ProvisionRequest) (*model.ProvisionResult, error)
}

// ProvisionSettings are the fixed, operator-controlled parameters of every VM.
type ProvisionSettings struct {
	AddressSpace   string
	SubnetName     string
	SubnetPrefix   string
	VMSize         string
	ImagePublisher string
	ImageOffer     string
	ImageSKU       string
	ImageVersion   string
	AdminUsername  string
	AdminPassword  string
}

type provisionState struct {
	req    model.ProvisionRequest
	result model.ProvisionResult
}

type provisionStep struct {
	name string
	run  func(ctx context.Context, st *provisionState) error
}

type provisionUC struct {
	cloud    adapter.CloudAdapter
	settings ProvisionSettings
	log      *zerolog.Logger
	steps    []provisionStep
}

func NewProvisionUseCase(cloud adapter.CloudAdapter, settings ProvisionSettings, logger *zerolog.Logger) *provisionUC {
	uc := &provisionUC{cloud: cloud, settings: settings, log: logger}
	uc.steps = []provisionStep{
		{name: StepResourceGroup, run: uc.createResourceGroup},
		{name: StepVirtualNetwork, run: uc.createVirtualNetwork},
		{name: StepNetworkInterface, run: uc.createNetworkInterface},
		{name: StepVirtualMachine, run: uc.createVirtualMachine},
	}
	return uc
}

func (p *provisionUC) Provision(ctx context.Context, req model.ProvisionRequest) (*model.ProvisionResult, error) {
	log := logging.With(ctx, p.log)
	start := time.Now()
	st := &provisionState{req: req}

	for i, step := range p.steps {
		stepStart := time.Now()
		log.Info().Str("step", step.name).Int("index", i+1).Int("total", len(p.steps)).Msg("provisioning step starting")

		if err := step.run(ctx, st); err != nil {
			metrics.IncProvisionStep(step.name, false)
			metrics.ObserveProvisioning(time.Since(start), false)
			log.Error().Err(err).Str("step", step.name).Msg("provisioning step failed")
			return &st.result, &domain.ProvisionStepError{Step: step.name, Err: err}
		}

		metrics.IncProvisionStep(step.name, true)
		log.Info().Str("step", step.name).Dur("duration", time.Since(stepStart)).Msg("provisioning step completed")
	}

	metrics.ObserveProvisioning(time.Since(start), true)
	log.Info().Dur("duration", time.Since(start)).Str("vm_id", st.result.VirtualMachineID).Msg("provisioning completed")
	return &st.result, nil
}

func (p *provisionUC) createResourceGroup(ctx context.Context, st *provisionState) error {
	id, err := p.cloud.CreateResourceGroup(ctx, st.req.ResourceGroupName, st.req.Location)
	if err != nil {
		return err
	}
	st.result.ResourceGroupID = id
	return nil
}

func (p *provisionUC) createVirtualNetwork(ctx context.Context, st *provisionState) error {
	id, err := p.cloud.CreateVirtualNetwork(ctx, st.req.ResourceGroupName, st.req.NetworkName, adapter.VirtualNetworkSpec{
		Location:     st.req.Location,
		AddressSpace: p.settings.AddressSpace,
		SubnetName:   p.settings.SubnetName,
		SubnetPrefix: p.settings.SubnetPrefix,
	})
	if err != nil {
		return err
	}
	st.result.NetworkID = id
	return nil
}

func (p *provisionUC) createNetworkInterface(ctx context.Context, st *provisionState) error {
	subnetID, err := p.cloud.GetSubnet(ctx, st.req.ResourceGroupName, st.req.NetworkName, p.settings.SubnetName)
	if err != nil {
		return err
	}
	st.result.SubnetID = subnetID

	id, err := p.cloud.CreateNetworkInterface(ctx, st.req.ResourceGroupName, model.NetworkInterfaceName(st.req.VMName), st.req.Location, subnetID)
	if err != nil {
		return err
	}
	st.result.NetworkInterfaceID = id
	return nil
}

func (p *provisionUC) createVirtualMachine(ctx context.Context, st *provisionState) error {
	id, err := p.cloud.CreateVirtualMachine(ctx, st.req.ResourceGroupName, st.req.VMName, adapter.VirtualMachineSpec{
		Location:           st.req.Location,
		Size:               p.settings.VMSize,
		ImagePublisher:     p.settings.ImagePublisher,
		ImageOffer:         p.settings.ImageOffer,
		ImageSKU:           p.settings.ImageSKU,
		ImageVersion:       p.settings.ImageVersion,
		OSDiskName:         st.req.VMName + "-osdisk",
		AdminUsername:      p.settings.AdminUsername,
		AdminPassword:      p.settings.AdminPassword,
		NetworkInterfaceID: st.result.NetworkInterfaceID,
	})
	if err != nil {
		return err
	}
	st.result.VirtualMachineID = id
	return nil
}
