/*
	p-load
	Copyright (c) 2024 p-load authors.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package ploadertest provides an in-memory bootloader transport for tests.
package ploadertest

import (
	"fmt"

	"github.com/bootflash/p-load/ploader"
	"github.com/pkg/errors"
)

// erasePages is the number of erase requests a fake bootloader needs to
// erase its flash.
const erasePages = 4

// Bootloader is a simulated bootloader device.
type Bootloader struct {
	Serial string
	Props  *ploader.Properties
	Flash  []byte
	Eeprom []byte

	// Fail makes the given request fail with the error.
	Fail map[uint8]error
	// StallAddress makes flash block writes at this address stall with
	// ploader.ErrAddressRange.
	StallAddress uint32
	// SerialErr is returned when the serial number is read.
	SerialErr error
	// OpenErr is returned when the device is opened.
	OpenErr error

	Opens       int
	OpenConns   int
	Restarts    int
	BlockWrites int
	Requests    []uint8

	path      string
	pagesLeft int
	lastError ploader.DeviceError
}

// NewBootloader returns a blank bootloader of the first supported type.
func NewBootloader(serial string) *Bootloader {
	props := ploader.Types()[0]
	return &Bootloader{
		Serial: serial,
		Props:  props,
		Flash:  filled(props.AppSize),
		Eeprom: filled(props.EepromSize),
	}
}

func filled(size uint32) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

// HasApp reports whether anything is programmed in flash.
func (b *Bootloader) HasApp() bool {
	for _, v := range b.Flash {
		if v != 0xFF {
			return true
		}
	}
	return false
}

// Transport is a ploader.Transport over simulated devices.
type Transport struct {
	Bootloaders []*Bootloader
	// Others are connected devices that are not bootloaders.
	Others []*ploader.Device
	// DevicesErr is returned by Devices.
	DevicesErr error
	// OnDevices is called at the start of every enumeration.
	OnDevices func(call int)

	DevicesCalls int
}

// New returns a transport with the given bootloaders connected.
func New(bls ...*Bootloader) *Transport {
	t := &Transport{}
	for _, b := range bls {
		t.Add(b)
	}
	return t
}

// Add connects a bootloader.
func (t *Transport) Add(b *Bootloader) {
	b.path = fmt.Sprintf("1:%d", len(t.Bootloaders)+len(t.Others)+2)
	t.Bootloaders = append(t.Bootloaders, b)
}

// OpenConns returns the number of connections currently open.
func (t *Transport) OpenConns() int {
	n := 0
	for _, b := range t.Bootloaders {
		n += b.OpenConns
	}
	return n
}

// Opens returns the number of times any device was opened.
func (t *Transport) Opens() int {
	n := 0
	for _, b := range t.Bootloaders {
		n += b.Opens
	}
	return n
}

func (t *Transport) find(dev *ploader.Device) (*Bootloader, error) {
	for _, b := range t.Bootloaders {
		if b.path == dev.Path {
			return b, nil
		}
	}
	return nil, errors.Errorf("no such device %s", dev)
}

// Devices implements ploader.Transport.
func (t *Transport) Devices() ([]*ploader.Device, error) {
	t.DevicesCalls++
	if t.OnDevices != nil {
		t.OnDevices(t.DevicesCalls)
	}
	if t.DevicesErr != nil {
		return nil, t.DevicesErr
	}
	res := append([]*ploader.Device{}, t.Others...)
	for _, b := range t.Bootloaders {
		res = append(res, &ploader.Device{VendorID: b.Props.VendorID, ProductID: b.Props.ProductID, Path: b.path})
	}
	return res, nil
}

// SerialNumber implements ploader.Transport.
func (t *Transport) SerialNumber(dev *ploader.Device) (string, error) {
	b, err := t.find(dev)
	if err != nil {
		return "", err
	}
	if b.SerialErr != nil {
		return "", b.SerialErr
	}
	return b.Serial, nil
}

// Open implements ploader.Transport.
func (t *Transport) Open(dev *ploader.Device) (ploader.Conn, error) {
	b, err := t.find(dev)
	if err != nil {
		return nil, err
	}
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.Opens++
	b.OpenConns++
	return &conn{b: b}, nil
}

type conn struct {
	b      *Bootloader
	closed bool
}

func (c *conn) Close() error {
	if c.closed {
		return errors.New("connection already closed")
	}
	c.closed = true
	c.b.OpenConns--
	return nil
}

func (c *conn) stall(code ploader.DeviceError) (int, error) {
	c.b.lastError = code
	return 0, ploader.ErrStall
}

func (c *conn) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	b := c.b
	if c.closed {
		return 0, errors.New("connection closed")
	}
	b.Requests = append(b.Requests, request)
	if err := b.Fail[request]; err != nil {
		return 0, err
	}
	p := b.Props
	address := uint32(value) | uint32(index)<<16
	switch request {
	case ploader.RequestSetDeviceCode:
		return len(data), nil
	case ploader.RequestInitialize:
		b.pagesLeft = erasePages
		return 0, nil
	case ploader.RequestEraseFlash:
		if len(data) != 2 {
			return c.stall(ploader.ErrLength)
		}
		if b.pagesLeft > 0 {
			b.pagesLeft--
		}
		if b.pagesLeft == 0 {
			b.Flash = filled(p.AppSize)
		}
		data[0], data[1] = 0, byte(b.pagesLeft)
		return 2, nil
	case ploader.RequestWriteFlashBlock:
		if b.StallAddress != 0 && address == b.StallAddress {
			return c.stall(ploader.ErrAddressRange)
		}
		if address < p.AppAddress || address+uint32(len(data)) > p.AppAddress+p.AppSize {
			return c.stall(ploader.ErrAddressRange)
		}
		if uint32(len(data)) != p.WriteBlockSize {
			return c.stall(ploader.ErrLength)
		}
		copy(b.Flash[address-p.AppAddress:], data)
		b.BlockWrites++
		return len(data), nil
	case ploader.RequestGetLastError:
		data[0] = byte(b.lastError)
		return 1, nil
	case ploader.RequestCheckApp:
		data[0] = 0
		if b.HasApp() {
			data[0] = 1
		}
		return 1, nil
	case ploader.RequestReadFlash:
		if address < p.AppAddress || address+uint32(len(data)) > p.AppAddress+p.AppSize {
			return c.stall(ploader.ErrAddressRange)
		}
		return copy(data, b.Flash[address-p.AppAddress:]), nil
	case ploader.RequestReadEeprom:
		if address < p.EepromAddress || address+uint32(len(data)) > p.EepromAddress+p.EepromSize {
			return c.stall(ploader.ErrAddressRange)
		}
		return copy(data, b.Eeprom[address-p.EepromAddress:]), nil
	case ploader.RequestWriteEeprom:
		if address < p.EepromAddress || address+uint32(len(data)) > p.EepromAddress+p.EepromSize {
			return c.stall(ploader.ErrAddressRange)
		}
		return copy(b.Eeprom[address-p.EepromAddress:], data), nil
	case ploader.RequestRestart:
		b.Restarts++
		return 0, nil
	}
	return c.stall(ploader.ErrState)
}
