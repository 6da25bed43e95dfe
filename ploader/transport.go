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

package ploader

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStall is returned by a Conn when the device stalls a control transfer.
// Bootloaders stall a request they reject and keep the reason, which can be
// fetched with the get-last-error request.
var ErrStall = errors.New("USB pipe error (the device stalled the request)")

// Device is a USB device seen during enumeration. It is not opened.
type Device struct {
	VendorID  uint16
	ProductID uint16
	// Path identifies the device on its bus, e.g. "1:7".
	Path string
}

func (d *Device) String() string {
	return fmt.Sprintf("%04x:%04x@%s", d.VendorID, d.ProductID, d.Path)
}

// Transport gives access to the USB devices connected to the computer.
type Transport interface {
	// Devices lists the connected devices that may be bootloaders.
	Devices() ([]*Device, error)
	// SerialNumber reads the USB serial number of the device.
	SerialNumber(dev *Device) (string, error)
	// Open opens a connection to the device.
	Open(dev *Device) (Conn, error)
}

// Conn is an open connection to a USB device.
type Conn interface {
	// Control performs a control transfer on the default endpoint and
	// returns the number of bytes transferred.
	Control(requestType, request uint8, value, index uint16, data []byte) (int, error)
	Close() error
}
