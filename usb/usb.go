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

// Package usb implements the bootloader transport on top of libusb.
package usb

import (
	"fmt"
	"time"

	"github.com/bootflash/p-load/ploader"
	"github.com/google/gousb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ControlTimeout is the timeout of every control transfer.
const ControlTimeout = 5 * time.Second

// Transport is a ploader.Transport backed by a libusb context. The context
// is created on first use.
type Transport struct {
	ctx *gousb.Context
}

// New returns a transport. Close must be called when done.
func New() *Transport {
	return &Transport{}
}

func (t *Transport) context() *gousb.Context {
	if t.ctx == nil {
		t.ctx = gousb.NewContext()
	}
	return t.ctx
}

// Close releases the libusb context, if it was created.
func (t *Transport) Close() error {
	if t.ctx == nil {
		return nil
	}
	err := t.ctx.Close()
	t.ctx = nil
	return err
}

func path(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%d:%d", desc.Bus, desc.Address)
}

// Devices lists the connected devices whose IDs match a supported
// bootloader. Devices are not opened.
func (t *Transport) Devices() ([]*ploader.Device, error) {
	var res []*ploader.Device
	_, err := t.context().OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if ploader.IsBootloader(uint16(desc.Vendor), uint16(desc.Product)) {
			res = append(res, &ploader.Device{
				VendorID:  uint16(desc.Vendor),
				ProductID: uint16(desc.Product),
				Path:      path(desc),
			})
		}
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "enumerating USB devices")
	}
	return res, nil
}

func (t *Transport) open(dev *ploader.Device) (*gousb.Device, error) {
	devs, err := t.context().OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return path(desc) == dev.Path &&
			uint16(desc.Vendor) == dev.VendorID &&
			uint16(desc.Product) == dev.ProductID
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		return nil, err
	}
	if len(devs) == 0 {
		return nil, errors.Errorf("device %s was disconnected", dev)
	}
	for _, d := range devs[1:] {
		d.Close()
	}
	devs[0].ControlTimeout = ControlTimeout
	return devs[0], nil
}

// SerialNumber opens the device briefly to read its serial number string.
func (t *Transport) SerialNumber(dev *ploader.Device) (string, error) {
	d, err := t.open(dev)
	if err != nil {
		return "", err
	}
	defer d.Close()
	return d.SerialNumber()
}

// Open implements ploader.Transport.
func (t *Transport) Open(dev *ploader.Device) (ploader.Conn, error) {
	d, err := t.open(dev)
	if err != nil {
		return nil, err
	}
	logrus.WithField("device", dev.String()).Debug("USB device opened")
	return &conn{dev: d}, nil
}

type conn struct {
	dev *gousb.Device
}

func (c *conn) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	n, err := c.dev.Control(requestType, request, value, index, data)
	if errors.Is(err, gousb.ErrorPipe) {
		return n, ploader.ErrStall
	}
	return n, err
}

func (c *conn) Close() error {
	return c.dev.Close()
}
