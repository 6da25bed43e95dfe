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

// Package ihex reads and writes memory regions as Intel HEX files.
package ihex

import (
	"io"

	"github.com/arduino/go-paths-helper"
	"github.com/bootflash/p-load/regions"
	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// lineLength is the number of data bytes in each record written.
const lineLength = 16

// Decode parses Intel HEX data from r and copies every byte that falls
// inside one of the regions into its buffer. Bytes outside every region
// are ignored; region bytes missing from the file are left untouched.
func Decode(r io.Reader, rs []regions.Descriptor) error {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return err
	}
	for _, seg := range mem.GetDataSegments() {
		segStart := uint64(seg.Address)
		segEnd := segStart + uint64(len(seg.Data))
		for _, rg := range rs {
			start := max(segStart, uint64(rg.Start))
			end := min(segEnd, uint64(rg.End))
			if start >= end {
				continue
			}
			copy(rg.Data[start-uint64(rg.Start):end-uint64(rg.Start)], seg.Data[start-segStart:end-segStart])
		}
	}
	return nil
}

// Encode writes the regions to w as Intel HEX.
func Encode(w io.Writer, rs []regions.Descriptor) error {
	mem := gohex.NewMemory()
	for _, rg := range rs {
		if err := mem.AddBinary(rg.Start, rg.Data[:rg.End-rg.Start]); err != nil {
			return errors.Wrapf(err, "adding region at 0x%X", rg.Start)
		}
	}
	return mem.DumpIntelHex(w, lineLength)
}

// ReadFile loads the HEX file into the regions. Errors are prefixed with
// the file name.
func ReadFile(file *paths.Path, rs []regions.Descriptor) error {
	f, err := file.Open()
	if err != nil {
		return errors.Errorf("%s: %s", file, describe(err))
	}
	defer f.Close()
	if err := Decode(f, rs); err != nil {
		return errors.Errorf("%s: %s", file, err)
	}
	return nil
}

// WriteFile writes the regions into an already open HEX file.
func WriteFile(w io.Writer, name *paths.Path, rs []regions.Descriptor) error {
	if err := Encode(w, rs); err != nil {
		return errors.Errorf("%s: %s", name, describe(err))
	}
	return nil
}
