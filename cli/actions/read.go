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
	"os"

	"github.com/arduino/go-paths-helper"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/ihex"
	"github.com/bootflash/p-load/pipeline"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/regions"
	"github.com/bootflash/p-load/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// hexFileReader saves regions of the device to a HEX file.
type hexFileReader struct {
	pipeline.Base
	session               *session.Session
	readFlash, readEeprom bool
	file                  *paths.Path
	out                   *os.File
}

func newHexFileReader(s *session.Session, flash, eeprom bool) *hexFileReader {
	return &hexFileReader{session: s, readFlash: flash, readEeprom: eeprom}
}

func (r *hexFileReader) Parse(args pipeline.ArgSource) error {
	file, err := parseFileName(args)
	if err != nil {
		return err
	}
	r.file = file
	return nil
}

// Prepare creates the output file, so an unwritable path is reported
// before anything else runs.
func (r *hexFileReader) Prepare() error {
	out, err := r.file.Create()
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return errorcodes.Failedf("%s: %s", r.file, err)
	}
	r.out = out
	return nil
}

func (r *hexFileReader) Execute() error {
	h, err := r.session.EnsureHandle()
	if err != nil {
		return err
	}
	info := h.Info()
	progress := ploader.StatusCallback(feedback.Progress)

	var images []*regions.Image
	if r.readFlash {
		img := regions.NewReadImage(info, regions.Flash)
		if err := h.ReadFlash(img.Data, progress); err != nil {
			return errorcodes.Failed(err)
		}
		images = append(images, img)
	}
	if r.readEeprom {
		img := regions.NewReadImage(info, regions.Eeprom)
		if err := h.ReadEeprom(img.Data, progress); err != nil {
			return errorcodes.Failed(err)
		}
		images = append(images, img)
	}

	if err := ihex.WriteFile(r.out, r.file, regions.Descriptors(images...)); err != nil {
		return errorcodes.Failed(err)
	}
	logrus.WithField("file", r.file).Debug("HEX file written")
	return nil
}

func (r *hexFileReader) Release() {
	if r.out == nil {
		return
	}
	if err := r.out.Close(); err != nil {
		logrus.WithError(err).WithField("file", r.file).Warn("Closing HEX file")
	}
	r.out = nil
}
