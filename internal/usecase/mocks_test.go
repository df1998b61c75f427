package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/domain/model"
	"vm-provisioning-bot/internal/domain/ports/adapter"
	"vm-provisioning-bot/internal/infra/i18n"
)

// memSessionRepo mimics the Redis key layout in memory and counts calls so
// tests can check the per-turn read/write budget.
type memSessionRepo struct {
	mu   sync.Mutex
	keys map[string]string

	gets, saves, deletes int
	getErr, saveErr      error
	deleteErr            error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{keys: map[string]string{}}
}

func (m *memSessionRepo) Get(ctx context.Context, userID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := model.NewSession(userID)
	raw, ok := m.keys[userID]
	if !ok {
		return s, nil
	}
	s.SetStep(model.ParseStep(raw))
	s.RawStep = raw
	if v, ok := m.keys[userID+"_resource_group"]; ok {
		s.ResourceGroupName = model.Some(v)
	}
	if v, ok := m.keys[userID+"_network"]; ok {
		s.NetworkName = model.Some(v)
	}
	return s, nil
}

func (m *memSessionRepo) Save(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	wire, ok := s.Step.Wire()
	if !ok {
		return errors.New("step has no stored form")
	}
	m.keys[s.UserID] = wire
	if s.ResourceGroupName.Set {
		m.keys[s.UserID+"_resource_group"] = s.ResourceGroupName.Value
	}
	if s.NetworkName.Set {
		m.keys[s.UserID+"_network"] = s.NetworkName.Value
	}
	return nil
}

func (m *memSessionRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.keys, userID)
	delete(m.keys, userID+"_resource_group")
	delete(m.keys, userID+"_network")
	return nil
}

func (m *memSessionRepo) keyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *memSessionRepo) resetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets, m.saves, m.deletes = 0, 0, 0
}

// fakeCloud records every call and fails at the configured operation.
type fakeCloud struct {
	mu     sync.Mutex
	calls  []string
	failOn string
	err    error

	lastVNet adapter.VirtualNetworkSpec
	lastVM   adapter.VirtualMachineSpec
	nicName  string
	vmName   string
	rgName   string
	netName  string
}

func (f *fakeCloud) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if f.failOn == op {
		if f.err != nil {
			return f.err
		}
		return errors.New(op + " failed")
	}
	return nil
}

func (f *fakeCloud) CreateResourceGroup(ctx context.Context, name, location string) (string, error) {
	if err := f.record("CreateResourceGroup"); err != nil {
		return "", err
	}
	f.rgName = name
	return "/rg/" + name, nil
}

func (f *fakeCloud) CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, spec adapter.VirtualNetworkSpec) (string, error) {
	if err := f.record("CreateVirtualNetwork"); err != nil {
		return "", err
	}
	f.netName = name
	f.lastVNet = spec
	return "/rg/" + resourceGroup + "/vnet/" + name, nil
}

func (f *fakeCloud) GetSubnet(ctx context.Context, resourceGroup, network, subnet string) (string, error) {
	if err := f.record("GetSubnet"); err != nil {
		return "", err
	}
	return "/rg/" + resourceGroup + "/vnet/" + network + "/subnet/" + subnet, nil
}

func (f *fakeCloud) CreateNetworkInterface(ctx context.Context, resourceGroup, name, location, subnetID string) (string, error) {
	if err := f.record("CreateNetworkInterface"); err != nil {
		return "", err
	}
	f.nicName = name
	return "/rg/" + resourceGroup + "/nic/" + name, nil
}

func (f *fakeCloud) CreateVirtualMachine(ctx context.Context, resourceGroup, name string, spec adapter.VirtualMachineSpec) (string, error) {
	if err := f.record("CreateVirtualMachine"); err != nil {
		return "", err
	}
	f.vmName = name
	f.lastVM = spec
	return "/rg/" + resourceGroup + "/vm/" + name, nil
}

// blockingCloud waits for ctx cancellation on the first call.
type blockingCloud struct{ fakeCloud }

func (b *blockingCloud) CreateResourceGroup(ctx context.Context, name, location string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func esTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "es")
	if err != nil {
		panic(err)
	}
	return tr
}

func testSettings() ProvisionSettings {
	return ProvisionSettings{
		AddressSpace:   "10.0.0.0/16",
		SubnetName:     "default",
		SubnetPrefix:   "10.0.0.0/24",
		VMSize:         "Standard_DS1_v2",
		ImagePublisher: "Canonical",
		ImageOffer:     "UbuntuServer",
		ImageSKU:       "18.04-LTS",
		ImageVersion:   "latest",
		AdminUsername:  "azureuser",
		AdminPassword:  "secret",
	}
}
