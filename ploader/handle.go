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
)

const (
	requestTypeOut uint8 = 0x40
	requestTypeIn  uint8 = 0xC0
)

// Vendor requests understood by the bootloaders.
const (
	RequestInitialize      uint8 = 0x80
	RequestEraseFlash      uint8 = 0x81
	RequestWriteFlashBlock uint8 = 0x82
	RequestGetLastError    uint8 = 0x83
	RequestCheckApp        uint8 = 0x84
	RequestReadFlash       uint8 = 0x86
	RequestSetDeviceCode   uint8 = 0x87
	RequestReadEeprom      uint8 = 0x88
	RequestWriteEeprom     uint8 = 0x89
	RequestRestart         uint8 = 0xFE
)

const (
	readFlashBlockSize   = 1024
	eepromBlockSize      = 32
	restartDelayMs       = 500
	initializeEraseValue = 2
)

// StatusCallback is called during long operations with a short status
// message and the progress made so far.
type StatusCallback func(status string, progress, maxProgress uint32)

func (cb StatusCallback) report(status string, progress, maxProgress uint32) {
	if cb != nil {
		cb(status, progress, maxProgress)
	}
}

// Handle is an open connection to one bootloader.
type Handle struct {
	conn  Conn
	props *Properties
	info  *Info
}

// Info returns the identity and memory layout of the bootloader.
func (h *Handle) Info() *Info {
	return h.info
}

// Close closes the connection. It is safe to call more than once.
func (h *Handle) Close() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

func (h *Handle) control(requestType, request uint8, address uint32, data []byte) (int, error) {
	if h.conn == nil {
		return 0, errors.New("bootloader connection is closed")
	}
	return h.conn.Control(requestType, request, uint16(address&0xFFFF), uint16(address>>16), data)
}

// lastError wraps a failed request. When the device stalled, the reason is
// fetched from the device so the user sees what went wrong.
func (h *Handle) lastError(err error, context string) error {
	if !errors.Is(err, ErrStall) {
		return errors.Wrap(err, context)
	}
	buf := make([]byte, 1)
	n, gerr := h.control(requestTypeIn, RequestGetLastError, 0, buf)
	if gerr != nil || n != 1 {
		logrus.WithError(gerr).Debug("Could not read last bootloader error")
		return errors.Wrap(err, context)
	}
	return errors.Wrap(DeviceError(buf[0]), context)
}

// EraseFlash erases the application flash of the device.
func (h *Handle) EraseFlash(cb StatusCallback) error {
	if h.props.DeviceCode != nil {
		if _, err := h.control(requestTypeOut, RequestSetDeviceCode, 0, h.props.DeviceCode); err != nil {
			return h.lastError(err, "Failed to set device code")
		}
	}
	if _, err := h.control(requestTypeOut, RequestInitialize, initializeEraseValue, nil); err != nil {
		return h.lastError(err, "Failed to initialize bootloader")
	}

	var maxProgress uint32
	resp := make([]byte, 2)
	for {
		n, err := h.control(requestTypeIn, RequestEraseFlash, 0, resp)
		if err != nil {
			return h.lastError(err, "Failed to erase flash")
		}
		if n != 2 {
			return errors.Errorf("Failed to erase flash: expected 2 bytes, got %d", n)
		}
		if resp[0] != 0 {
			return errors.Wrap(DeviceError(resp[0]), "Failed to erase flash")
		}
		left := uint32(resp[1])
		if maxProgress < left {
			maxProgress = left + 1
		}
		cb.report("Erasing flash...", maxProgress-left, maxProgress)
		if left == 0 {
			return nil
		}
	}
}

func isBlank(data []byte) bool {
	for _, b := range data {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// WriteFlash erases the application flash and writes image to it. The image
// must cover the whole application region. Blocks that are all 0xFF are
// left erased.
func (h *Handle) WriteFlash(image []byte, cb StatusCallback) error {
	p := h.props
	if uint32(len(image)) != p.AppSize {
		return errors.Errorf("flash image is %d bytes, expected %d", len(image), p.AppSize)
	}
	if err := h.EraseFlash(cb); err != nil {
		return err
	}

	bs := p.WriteBlockSize
	written := 0
	cb.report("Writing flash...", 0, p.AppSize)
	for address := p.AppAddress + p.AppSize; address > p.AppAddress; {
		address -= bs
		offset := address - p.AppAddress
		block := image[offset : offset+bs]
		if isBlank(block) {
			continue
		}
		n, err := h.control(requestTypeOut, RequestWriteFlashBlock, address, block)
		if err != nil {
			return h.lastError(err, "Failed to write flash")
		}
		if n != len(block) {
			return errors.Errorf("Failed to write flash: sent %d of %d bytes", n, len(block))
		}
		written++
		cb.report("Writing flash...", p.AppSize-offset, p.AppSize)
	}
	cb.report("Writing flash...", p.AppSize, p.AppSize)
	logrus.Debugf("Wrote %d flash block(s)", written)
	return nil
}

// ReadFlash reads the application flash into image, which must be exactly
// as large as the application region.
func (h *Handle) ReadFlash(image []byte, cb StatusCallback) error {
	p := h.props
	if !p.SupportsReadingFlash {
		return errors.New("This bootloader does not support reading flash memory.")
	}
	if uint32(len(image)) != p.AppSize {
		return errors.Errorf("flash buffer is %d bytes, expected %d", len(image), p.AppSize)
	}
	for offset := uint32(0); offset < p.AppSize; {
		size := min(uint32(readFlashBlockSize), p.AppSize-offset)
		block := image[offset : offset+size]
		n, err := h.control(requestTypeIn, RequestReadFlash, p.AppAddress+offset, block)
		if err != nil {
			return h.lastError(err, "Failed to read flash")
		}
		if n != len(block) {
			return errors.Errorf("Failed to read flash: got %d of %d bytes", n, len(block))
		}
		offset += size
		cb.report("Reading flash...", offset, p.AppSize)
	}
	return nil
}

func (h *Handle) checkEepromAccess(image []byte) error {
	p := h.props
	if p.EepromSize == 0 {
		return errors.New("This device does not have EEPROM.")
	}
	if !p.SupportsEepromAccess {
		return errors.New("This bootloader does not support accessing EEPROM.")
	}
	if uint32(len(image)) != p.EepromSize {
		return errors.Errorf("EEPROM image is %d bytes, expected %d", len(image), p.EepromSize)
	}
	return nil
}

// WriteEeprom writes image to the whole EEPROM.
func (h *Handle) WriteEeprom(image []byte, cb StatusCallback) error {
	if err := h.checkEepromAccess(image); err != nil {
		return err
	}
	p := h.props
	status := "Writing EEPROM..."
	if isBlank(image) {
		status = "Erasing EEPROM..."
	}
	for offset := uint32(0); offset < p.EepromSize; {
		size := min(uint32(eepromBlockSize), p.EepromSize-offset)
		block := image[offset : offset+size]
		n, err := h.control(requestTypeOut, RequestWriteEeprom, p.EepromAddress+offset, block)
		if err != nil {
			return h.lastError(err, "Failed to write EEPROM")
		}
		if n != len(block) {
			return errors.Errorf("Failed to write EEPROM: sent %d of %d bytes", n, len(block))
		}
		offset += size
		cb.report(status, offset, p.EepromSize)
	}
	return nil
}

// ReadEeprom reads the whole EEPROM into image.
func (h *Handle) ReadEeprom(image []byte, cb StatusCallback) error {
	if err := h.checkEepromAccess(image); err != nil {
		return err
	}
	p := h.props
	for offset := uint32(0); offset < p.EepromSize; {
		size := min(uint32(eepromBlockSize), p.EepromSize-offset)
		block := image[offset : offset+size]
		n, err := h.control(requestTypeIn, RequestReadEeprom, p.EepromAddress+offset, block)
		if err != nil {
			return h.lastError(err, "Failed to read EEPROM")
		}
		if n != len(block) {
			return errors.Errorf("Failed to read EEPROM: got %d of %d bytes", n, len(block))
		}
		offset += size
		cb.report("Reading EEPROM...", offset, p.EepromSize)
	}
	return nil
}

// CheckApplication asks the bootloader whether a valid application is
// present in flash.
func (h *Handle) CheckApplication() (bool, error) {
	buf := make([]byte, 1)
	n, err := h.control(requestTypeIn, RequestCheckApp, 0, buf)
	if err != nil {
		return false, h.lastError(err, "Failed to check application")
	}
	if n != 1 {
		return false, errors.Errorf("Failed to check application: got %d bytes", n)
	}
	return buf[0] == 1, nil
}

// Restart makes the bootloader restart and run the application.
func (h *Handle) Restart() error {
	if _, err := h.control(requestTypeOut, RequestRestart, restartDelayMs, nil); err != nil {
		return errors.Wrap(err, "Failed to restart")
	}
	return nil
}
