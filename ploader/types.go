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
	_ "embed"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// deviceCodeSize is the length of the code some bootloaders expect before
// an erase.
const deviceCodeSize = 16

// Properties describes one type of supported bootloader and its memory layout.
type Properties struct {
	Name                 string `yaml:"name" json:"name"`
	VendorID             uint16 `yaml:"vendor_id" json:"vendor_id"`
	ProductID            uint16 `yaml:"product_id" json:"product_id"`
	AppAddress           uint32 `yaml:"app_address" json:"app_address"`
	AppSize              uint32 `yaml:"app_size" json:"app_size"`
	WriteBlockSize       uint32 `yaml:"write_block_size" json:"write_block_size"`
	SupportsReadingFlash bool   `yaml:"supports_reading_flash" json:"supports_reading_flash"`
	EepromAddress        uint32 `yaml:"eeprom_address" json:"eeprom_address"`
	EepromAddressHexFile uint32 `yaml:"eeprom_address_hex_file" json:"eeprom_address_hex_file"`
	EepromSize           uint32 `yaml:"eeprom_size" json:"eeprom_size"`
	SupportsEepromAccess bool   `yaml:"supports_eeprom_access" json:"supports_eeprom_access"`
	DeviceCode           []byte `yaml:"device_code,omitempty" json:"device_code,omitempty"`
}

func (p *Properties) String() string {
	return fmt.Sprintf("%s (%04x:%04x)", p.Name, p.VendorID, p.ProductID)
}

//go:embed bootloaders.yaml
var bootloadersYAML []byte

var (
	typesOnce sync.Once
	types     []*Properties
)

// Types returns the table of supported bootloaders.
func Types() []*Properties {
	typesOnce.Do(func() {
		t, err := LoadTypes(bootloadersYAML)
		if err != nil {
			panic(fmt.Sprintf("invalid embedded bootloader table: %s", err))
		}
		types = t
	})
	return types
}

// LoadTypes parses and validates a bootloader table in YAML format.
func LoadTypes(data []byte) ([]*Properties, error) {
	var res []*Properties
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "parsing bootloader table")
	}
	for _, p := range res {
		if err := p.validate(); err != nil {
			return nil, errors.WithMessage(err, p.Name)
		}
	}
	return res, nil
}

func (p *Properties) validate() error {
	if p.Name == "" {
		return errors.New("missing name")
	}
	if p.WriteBlockSize == 0 {
		return errors.New("write_block_size must be greater than zero")
	}
	if p.AppSize%p.WriteBlockSize != 0 || p.AppAddress%p.WriteBlockSize != 0 {
		return errors.New("application region must be aligned to write_block_size")
	}
	if p.DeviceCode != nil && len(p.DeviceCode) != deviceCodeSize {
		return errors.Errorf("device_code must be %d bytes long", deviceCodeSize)
	}
	return nil
}

// LookupType returns the properties of the bootloader with the given USB IDs,
// or nil if it is not a supported bootloader.
func LookupType(vendorID, productID uint16) *Properties {
	t := Types()
	i := slices.IndexFunc(t, func(p *Properties) bool {
		return p.VendorID == vendorID && p.ProductID == productID
	})
	if i < 0 {
		return nil
	}
	return t[i]
}

// IsBootloader reports whether the USB IDs belong to a supported bootloader.
func IsBootloader(vendorID, productID uint16) bool {
	return LookupType(vendorID, productID) != nil
}
