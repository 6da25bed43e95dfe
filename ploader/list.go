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
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Info describes a bootloader device and the memory layout of its type.
type Info struct {
	Name                 string `json:"name"`
	SerialNumber         string `json:"serial_number"`
	VendorID             uint16 `json:"vendor_id"`
	ProductID            uint16 `json:"product_id"`
	AppAddress           uint32 `json:"app_address"`
	AppSize              uint32 `json:"app_size"`
	EepromAddress        uint32 `json:"eeprom_address"`
	EepromAddressHexFile uint32 `json:"eeprom_address_hex_file"`
	EepromSize           uint32 `json:"eeprom_size"`
}

type listEntry struct {
	dev    *Device
	props  *Properties
	serial string
	hasSN  bool
}

// List is a snapshot of the bootloaders connected to the computer.
type List struct {
	transport Transport
	entries   []*listEntry
}

// NewList enumerates the connected devices and keeps the supported
// bootloaders. If no types are given the built-in table is used.
func NewList(t Transport, types ...*Properties) (*List, error) {
	if len(types) == 0 {
		types = Types()
	}
	devs, err := t.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing USB devices")
	}
	l := &List{transport: t}
	for _, dev := range devs {
		i := slices.IndexFunc(types, func(p *Properties) bool {
			return p.VendorID == dev.VendorID && p.ProductID == dev.ProductID
		})
		if i < 0 {
			continue
		}
		props := types[i]
		l.entries = append(l.entries, &listEntry{dev: dev, props: props})
	}
	logrus.Debugf("Found %d bootloader(s) among %d USB device(s)", len(l.entries), len(devs))
	return l, nil
}

// Len returns the number of bootloaders in the list.
func (l *List) Len() int {
	return len(l.entries)
}

func (l *List) serialNumber(e *listEntry) (string, error) {
	if !e.hasSN {
		sn, err := l.transport.SerialNumber(e.dev)
		if err != nil {
			return "", errors.Wrapf(err, "reading serial number of %s", e.dev)
		}
		e.serial, e.hasSN = sn, true
	}
	return e.serial, nil
}

// FilterBySerialNumber drops every bootloader whose serial number differs
// from serialNumber. It fails if a serial number cannot be read.
func (l *List) FilterBySerialNumber(serialNumber string) error {
	var keep []*listEntry
	for _, e := range l.entries {
		sn, err := l.serialNumber(e)
		if err != nil {
			return err
		}
		if sn == serialNumber {
			keep = append(keep, e)
		}
	}
	l.entries = keep
	return nil
}

// Info returns the identity and memory layout of the i-th bootloader.
func (l *List) Info(i int) (*Info, error) {
	e := l.entries[i]
	sn, err := l.serialNumber(e)
	if err != nil {
		return nil, err
	}
	p := e.props
	return &Info{
		Name:                 p.Name,
		SerialNumber:         sn,
		VendorID:             p.VendorID,
		ProductID:            p.ProductID,
		AppAddress:           p.AppAddress,
		AppSize:              p.AppSize,
		EepromAddress:        p.EepromAddress,
		EepromAddressHexFile: p.EepromAddressHexFile,
		EepromSize:           p.EepromSize,
	}, nil
}

// Open opens the i-th bootloader.
func (l *List) Open(i int) (*Handle, error) {
	info, err := l.Info(i)
	if err != nil {
		return nil, err
	}
	e := l.entries[i]
	conn, err := l.transport.Open(e.dev)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", e.dev)
	}
	logrus.WithField("device", e.dev.String()).Debug("Bootloader opened")
	return &Handle{conn: conn, props: e.props, info: info}, nil
}
