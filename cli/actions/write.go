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

package actions

import (
	"github.com/arduino/go-paths-helper"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/ihex"
	"github.com/bootflash/p-load/pipeline"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/regions"
	"github.com/bootflash/p-load/session"
	"github.com/sirupsen/logrus"
)

// parseFileName consumes the file name that follows the action's flag.
func parseFileName(args pipeline.ArgSource) (*paths.Path, error) {
	flag := args.Last()
	name, ok := args.Next()
	if !ok || name == "" {
		return nil, errorcodes.BadArgs("Expected a filename after %s.", flag)
	}
	return paths.New(name), nil
}

// imageWriter pushes the selected images to the device, flash first.
type imageWriter struct {
	pipeline.Base
	session *session.Session
	flash   *regions.Image
	eeprom  *regions.Image
}

func (w *imageWriter) Execute() error {
	h, err := w.session.EnsureHandle()
	if err != nil {
		return err
	}
	progress := ploader.StatusCallback(feedback.Progress)
	if w.flash != nil {
		if err := h.WriteFlash(w.flash.Data, progress); err != nil {
			return errorcodes.Failed(err)
		}
	}
	if w.eeprom != nil {
		if err := h.WriteEeprom(w.eeprom.Data, progress); err != nil {
			return errorcodes.Failed(err)
		}
	}
	return nil
}

func (w *imageWriter) Release() {
	w.flash, w.eeprom = nil, nil
}

// hexFileWriter writes the content of a HEX file to the device.
type hexFileWriter struct {
	imageWriter
	writeFlash, writeEeprom bool
	file                    *paths.Path
}

func newHexFileWriter(s *session.Session, flash, eeprom bool) *hexFileWriter {
	return &hexFileWriter{
		imageWriter: imageWriter{session: s},
		writeFlash:  flash,
		writeEeprom: eeprom,
	}
}

func (w *hexFileWriter) Parse(args pipeline.ArgSource) error {
	file, err := parseFileName(args)
	if err != nil {
		return err
	}
	w.file = file
	return nil
}

// Prepare loads both regions from the file, whatever is going to be
// written, so a broken file is reported before touching the device.
func (w *hexFileWriter) Prepare() error {
	info, err := w.session.Info()
	if err != nil {
		return err
	}
	flash := regions.NewImage(info, regions.Flash)
	eeprom := regions.NewImage(info, regions.Eeprom)
	if err := ihex.ReadFile(w.file, regions.Descriptors(flash, eeprom)); err != nil {
		return errorcodes.Failed(err)
	}
	logrus.WithField("file", w.file).Debug("HEX file loaded")
	if w.writeFlash {
		w.flash = flash
	}
	if w.writeEeprom {
		w.eeprom = eeprom
	}
	return nil
}

// eraser fills regions of the device with 0xFF.
type eraser struct {
	imageWriter
	eraseFlash, eraseEeprom bool
}

func newEraser(s *session.Session, flash, eeprom bool) *eraser {
	return &eraser{
		imageWriter: imageWriter{session: s},
		eraseFlash:  flash,
		eraseEeprom: eeprom,
	}
}

func (e *eraser) Prepare() error {
	info, err := e.session.Info()
	if err != nil {
		return err
	}
	if e.eraseFlash {
		e.flash = regions.NewImage(info, regions.Flash)
	}
	if e.eraseEeprom {
		e.eeprom = regions.NewImage(info, regions.Eeprom)
	}
	return nil
}
