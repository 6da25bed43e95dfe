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

// Package regions maps the memory layout reported by a bootloader to the
// image buffers used for reading and writing HEX files.
package regions

import (
	"fmt"

	"github.com/bootflash/p-load/ploader"
)

// Kind is a memory region of the device.
type Kind int

// Memory regions.
const (
	Flash Kind = iota
	Eeprom
)

func (k Kind) String() string {
	switch k {
	case Flash:
		return "flash"
	case Eeprom:
		return "EEPROM"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Layout is where a region lives on the device and in a HEX file.
type Layout struct {
	Kind          Kind
	DeviceAddress uint32
	FileAddress   uint32
	Size          uint32
}

// LayoutOf returns the layout of the region k of the device.
func LayoutOf(info *ploader.Info, k Kind) Layout {
	if k == Eeprom {
		return Layout{
			Kind:          Eeprom,
			DeviceAddress: info.EepromAddress,
			FileAddress:   info.EepromAddressHexFile,
			Size:          info.EepromSize,
		}
	}
	return Layout{
		Kind:          Flash,
		DeviceAddress: info.AppAddress,
		FileAddress:   info.AppAddress,
		Size:          info.AppSize,
	}
}

// Image is a buffer holding the whole content of one region.
type Image struct {
	Layout
	Data []byte
}

// NewImage returns an image for writing, filled with 0xFF.
func NewImage(info *ploader.Info, k Kind) *Image {
	img := NewReadImage(info, k)
	for i := range img.Data {
		img.Data[i] = 0xFF
	}
	return img
}

// NewReadImage returns an image sized for reading the region from the device.
func NewReadImage(info *ploader.Info, k Kind) *Image {
	l := LayoutOf(info, k)
	return &Image{Layout: l, Data: make([]byte, l.Size)}
}

// Descriptor is a buffer and the HEX file address range [Start, End) it covers.
type Descriptor struct {
	Data  []byte
	Start uint32
	End   uint32
}

// Descriptor returns the file-side descriptor of the image.
func (img *Image) Descriptor() Descriptor {
	return Descriptor{Data: img.Data, Start: img.FileAddress, End: img.FileAddress + uint32(len(img.Data))}
}

// Descriptors returns the descriptors of the given images, skipping nil and
// empty ones.
func Descriptors(images ...*Image) []Descriptor {
	var res []Descriptor
	for _, img := range images {
		if img == nil || len(img.Data) == 0 {
			continue
		}
		res = append(res, img.Descriptor())
	}
	return res
}
