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
	"fmt"

	"github.com/arduino/arduino-cli/table"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/pipeline"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/session"
)

type listDevices struct {
	pipeline.Base
	session *session.Session
}

func newListDevices(s *session.Session) *listDevices {
	return &listDevices{session: s}
}

func (l *listDevices) Execute() error {
	res, err := l.session.ListDevices()
	if len(res) > 0 {
		feedback.PrintResult(DeviceListResult(res))
	}
	return err
}

// DeviceListResult is the output of --list.
type DeviceListResult []*session.DeviceStatus

func (r DeviceListResult) String() string {
	t := table.New()
	for _, d := range r {
		t.AddRow(d.SerialNumber, d.Name, d.Status)
	}
	return t.Render()
}

func (r DeviceListResult) Data() interface{} {
	return r
}

type listSupported struct {
	pipeline.Base
}

func (l *listSupported) Execute() error {
	feedback.PrintResult(SupportedListResult(ploader.Types()))
	return nil
}

// SupportedListResult is the output of --list-supported.
type SupportedListResult []*ploader.Properties

func (r SupportedListResult) String() string {
	t := table.New()
	t.SetHeader("Supported bootloaders", "USB ID")
	for _, p := range r {
		t.AddRow(p.Name, fmt.Sprintf("%04x:%04x", p.VendorID, p.ProductID))
	}
	return t.Render()
}

func (r SupportedListResult) Data() interface{} {
	return r
}
