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

import "fmt"

// DeviceError is an error code reported by the bootloader itself, either in
// an erase response or through the get-last-error request.
type DeviceError uint8

// Error codes reported by the bootloader.
const (
	ErrState              DeviceError = 1
	ErrLength             DeviceError = 2
	ErrProgramming        DeviceError = 3
	ErrWriteProtection    DeviceError = 4
	ErrVerification       DeviceError = 5
	ErrAddressRange       DeviceError = 6
	ErrAddressOrder       DeviceError = 7
	ErrAddressAlignment   DeviceError = 8
	ErrWrite              DeviceError = 9
	ErrEepromVerification DeviceError = 10
)

var deviceErrorDescriptions = map[DeviceError]string{
	ErrState:              "Device is not in the correct state.",
	ErrLength:             "Invalid data length.",
	ErrProgramming:        "Programming error.",
	ErrWriteProtection:    "Write protection error.",
	ErrVerification:       "Verification error.",
	ErrAddressRange:       "Address is not in the correct range.",
	ErrAddressOrder:       "Address was not accessed in the correct order.",
	ErrAddressAlignment:   "Address does not have the correct alignment.",
	ErrWrite:              "Write error.",
	ErrEepromVerification: "EEPROM verification error.",
}

func (e DeviceError) Error() string {
	if desc, ok := deviceErrorDescriptions[e]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown bootloader error code %d.", uint8(e))
}
