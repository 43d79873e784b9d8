package regbus

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
)

var errBus = errors.New("bus fault")

// journal records bus and select line activity in order.
type journal []string

func (j *journal) add(e string) {
	if j == nil {
		return
	}
	*j = append(*j, e)
}

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	args := m.Called(ctx, address, w, r)
	if args.Get(0) != nil {
		if data, ok := args.Get(0).([]byte); ok && len(data) <= len(r) {
			copy(r, data)
		}
	}
	return args.Error(1)
}

type MockSPIBus struct {
	mock.Mock
	journal *journal
}

func (m *MockSPIBus) Write(ctx context.Context, buffer []byte) error {
	m.journal.add("write")
	args := m.Called(ctx, append([]byte(nil), buffer...))
	return args.Error(0)
}

func (m *MockSPIBus) Transfer(ctx context.Context, buffer []byte) error {
	m.journal.add("transfer")
	// the outgoing bytes are captured before the reply overwrites them
	args := m.Called(ctx, append([]byte(nil), buffer...))
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

// fakePin is an active-low select line starting deasserted.
type fakePin struct {
	high    bool
	lowErr  error
	highErr error
	journal *journal
}

func newFakePin(j *journal) *fakePin {
	return &fakePin{high: true, journal: j}
}

func (p *fakePin) SetHigh() error {
	p.journal.add("high")
	if p.highErr != nil {
		return p.highErr
	}
	p.high = true
	return nil
}

func (p *fakePin) SetLow() error {
	p.journal.add("low")
	if p.lowErr != nil {
		return p.lowErr
	}
	p.high = false
	return nil
}

// registerFile emulates a device whose registers echo what was written.
type registerFile struct {
	regs [128]byte
}

func (f *registerFile) store(address, value byte) {
	f.regs[address&^directionBit] = value
}

func (f *registerFile) load(address byte, out []byte) {
	copy(out, f.regs[address&^directionBit:])
}

type echoI2CBus struct {
	registerFile
	address byte
}

func (b *echoI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("register pointer reads are not used")
}

func (b *echoI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != b.address {
		return errBus
	}
	b.store(buffer[0], buffer[1])
	return nil
}

func (b *echoI2CBus) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	if address != b.address {
		return errBus
	}
	b.load(w[0], r)
	return nil
}

type echoSPIBus struct {
	registerFile
}

func (b *echoSPIBus) Write(ctx context.Context, buffer []byte) error {
	if buffer[0]&directionBit != 0 {
		return errBus
	}
	b.store(buffer[0], buffer[1])
	return nil
}

func (b *echoSPIBus) Transfer(ctx context.Context, buffer []byte) error {
	if buffer[0]&directionBit == 0 {
		return errBus
	}
	b.load(buffer[0], buffer[1:])
	buffer[0] = 0xFF
	return nil
}
