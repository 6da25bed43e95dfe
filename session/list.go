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

package session

import (
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/sirupsen/logrus"
)

// App status reported for each listed device.
const (
	StatusAppPresent   = "App present"
	StatusNoAppPresent = "No app present"
	StatusUnknown      = "?"
)

// DeviceStatus is a connected bootloader as reported by ListDevices.
type DeviceStatus struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
	Status       string `json:"status"`
}

// ListDevices reports every connected bootloader matching the filter and
// whether an application is present on it. Any open connection is closed
// first since some systems do not allow two at once, and the devices are
// discovered again. An empty result yields a not-found error at info
// severity.
func (s *Session) ListDevices() ([]*DeviceStatus, error) {
	s.closeHandle()
	s.InvalidateList()
	list, err := s.EnsureList()
	if err != nil {
		return nil, err
	}

	res := []*DeviceStatus{}
	for i := 0; i < list.Len(); i++ {
		info, err := list.Info(i)
		if err != nil {
			return nil, errorcodes.Failed(err)
		}
		res = append(res, &DeviceStatus{
			SerialNumber: info.SerialNumber,
			Name:         info.Name,
			Status:       s.appStatus(i),
		})
	}
	if len(res) == 0 {
		return res, errorcodes.AsInfo(s.NotFound())
	}
	return res, nil
}

func (s *Session) appStatus(i int) string {
	h, err := s.list.Open(i)
	if err != nil {
		logrus.WithError(err).Debug("Opening bootloader for listing")
		feedback.Warning("Unable to connect to bootloader.")
		return StatusUnknown
	}
	defer h.Close()

	ok, err := h.CheckApplication()
	if err != nil {
		logrus.WithError(err).Debug("Checking application")
		feedback.Warning("Unable to check application.")
		return StatusUnknown
	}
	if ok {
		return StatusAppPresent
	}
	return StatusNoAppPresent
}
