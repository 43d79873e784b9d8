// Package adapter holds USB bridges that expose a two-wire bus to the host.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/regbus"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// HID command codes (MCP2221 datasheet, section 3.1)
const (
	cmdStatus           = 0x10
	cmdI2CWrite         = 0x90
	cmdI2CRead          = 0x91
	cmdI2CReadRepeated  = 0x93
	cmdI2CWriteNoStop   = 0x94
	cmdI2CGetData       = 0x40
	statusCancelRequest = 0x10
	statusOK            = 0x00
	statusBusy          = 0x01
	getDataError        = 0x41
	getDataSizeInvalid  = 127
)

var ErrCommandFailed = errors.New("command failed")
var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")
var ErrPayloadTooLarge = errors.New("payload does not fit a single HID report")
var ErrInvalidAddress = errors.New("not a 7-bit I2C address")

// maxPayload is what is left of a report after the command, length and
// address bytes.
const maxPayload = reportSize - 4

var _ regbus.I2CBus = &MCP2221{}
var _ regbus.Releaser = &MCP2221{}

// MCP2221 is a Microchip USB to I2C bridge. The device is opened for every
// exchange, so several processes can take turns on it.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	index        int
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Option func(*MCP2221)

// WithResponseWait sets the pause between a request and reading its response.
func WithResponseWait(wait time.Duration) MCP2221Option {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

// WithDeviceIndex picks one of several connected bridges (enumeration order).
func WithDeviceIndex(index int) MCP2221Option {
	return func(d *MCP2221) {
		d.index = index
	}
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
		index:        -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := checkTransfer(address, len(buffer))
	if err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdI2CWrite, address, buffer)
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := checkTransfer(address, len(buffer))
	if err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.read(ctx, cmdI2CRead, address, buffer)
}

// WriteReadAddr writes w without a stop condition and reads r after a
// repeated start.
func (d *MCP2221) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	err := checkTransfer(address, max(len(w), len(r)))
	if err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	err = d.write(ctx, cmdI2CWriteNoStop, address, w)
	if err != nil {
		return err
	}
	return d.read(ctx, cmdI2CReadRepeated, address, r)
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	encodeWrite(d.request, cmd, address, buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] == statusBusy {
		slog.DebugContext(ctx, "adapter busy", "address", address)
		return ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	encodeRead(d.request, cmd, address, len(buffer))
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == statusBusy {
		return ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	return decodeReadData(d.response, buffer)
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels the current I2C transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelRequest
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	if d.response[1] != statusOK {
		return nil, ErrCommandFailed
	}
	return bufferToStatus(d.response), nil
}

// checkTransfer rejects transfers the bridge cannot carry in one report,
// before anything reaches the device.
func checkTransfer(address byte, size int) error {
	if address > 0x7F {
		return fmt.Errorf("%w: %#x", ErrInvalidAddress, address)
	}
	if size > maxPayload {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, size, maxPayload)
	}
	return nil
}

func encodeWrite(request []byte, cmd byte, address byte, buffer []byte) {
	request[0] = cmd
	binary.LittleEndian.PutUint16(request[1:3], uint16(len(buffer)))
	request[3] = address << 1
	copy(request[4:], buffer)
}

func encodeRead(request []byte, cmd byte, address byte, size int) {
	request[0] = cmd
	binary.LittleEndian.PutUint16(request[1:3], uint16(size))
	request[3] = address<<1 + 1
}

func decodeReadData(response []byte, buffer []byte) error {
	if response[1] == getDataError {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine: %w", ErrCommandFailed)
	}
	if response[3] == getDataSizeInvalid || int(response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), response[3])
	}
	copy(buffer, response[4:])
	return nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	if d.index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification")
		}
		return devs[0].Open()
	}
	if d.index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", d.index)
	}
	return devs[d.index].Open()
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		err := dev.Close()
		if err != nil {
			slog.Debug("could not close MCP2221 device", "error", err)
		}
	}()
	verbose := regbus.IsVerbose(ctx)
	if verbose {
		slog.DebugContext(ctx, "sending message to adapter\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.responseWait):
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.DebugContext(ctx, "read message from adapter\n"+hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
