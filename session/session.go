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

// Package session keeps track of the bootloader p-load is talking to: it
// discovers the connected bootloaders, selects one and keeps a single
// connection open to it.
package session

import (
	"time"

	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/ploader"
	"github.com/sirupsen/logrus"
)

// Session is the device state shared by all the actions of one run.
type Session struct {
	transport    ploader.Transport
	serialNumber string
	hasSerial    bool

	list   *ploader.List
	handle *ploader.Handle

	now   func() time.Time
	sleep func(time.Duration)
}

// Option configures a Session.
type Option func(*Session)

// WithSerialNumber restricts the session to the bootloader with the given
// serial number.
func WithSerialNumber(serialNumber string) Option {
	return func(s *Session) {
		s.serialNumber, s.hasSerial = serialNumber, true
	}
}

// WithClock replaces the clock and sleep function used while waiting.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Session) {
		s.now, s.sleep = now, sleep
	}
}

// New returns a session using the transport to reach the devices. Nothing
// is enumerated or opened until needed.
func New(t ploader.Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSerialNumber restricts the session to the bootloader with the given
// serial number. It can be called only once, before any discovery.
func (s *Session) SetSerialNumber(serialNumber string) error {
	if s.hasSerial {
		return errorcodes.BadArgs("Serial number can only be specified once.")
	}
	WithSerialNumber(serialNumber)(s)
	return nil
}

// SerialNumber returns the serial number filter and whether it was set.
func (s *Session) SerialNumber() (string, bool) {
	return s.serialNumber, s.hasSerial
}

// NotFound returns the error for an empty device list.
func (s *Session) NotFound() error {
	if s.hasSerial {
		return errorcodes.NotFound("No bootloader found with serial number '%s'.", s.serialNumber)
	}
	return errorcodes.NotFound("No bootloader found.")
}

// EnsureList discovers the connected bootloaders matching the filter, if
// not done already. Finding no bootloader is not an error here.
func (s *Session) EnsureList() (*ploader.List, error) {
	if s.list != nil {
		return s.list, nil
	}
	list, err := ploader.NewList(s.transport)
	if err != nil {
		return nil, errorcodes.Failed(err)
	}
	if s.hasSerial {
		if err := list.FilterBySerialNumber(s.serialNumber); err != nil {
			return nil, errorcodes.Failed(err)
		}
	}
	s.list = list
	return list, nil
}

// InvalidateList forgets the device list so the next EnsureList discovers
// the devices again.
func (s *Session) InvalidateList() {
	s.list = nil
}

// EnsureHandle opens the only bootloader matching the filter, if not done
// already.
func (s *Session) EnsureHandle() (*ploader.Handle, error) {
	if s.handle != nil {
		return s.handle, nil
	}
	list, err := s.EnsureList()
	if err != nil {
		return nil, err
	}
	switch n := list.Len(); {
	case n == 0:
		return nil, s.NotFound()
	case n > 1:
		return nil, errorcodes.Failedf("There are multiple qualifying bootloaders connected to this computer.\n" +
			"Use the -d option to specify which bootloader you want to use, or disconnect\n" +
			"the others.")
	}
	handle, err := list.Open(0)
	if err != nil {
		return nil, errorcodes.Failed(err)
	}
	s.handle = handle
	info := handle.Info()
	logrus.WithField("serial", info.SerialNumber).Info("Connected to bootloader")
	feedback.Infof("Bootloader:    %s", info.Name)
	feedback.Infof("Serial number: %s", info.SerialNumber)
	return handle, nil
}

// Info returns the identity and memory layout of the selected bootloader,
// opening it if needed.
func (s *Session) Info() (*ploader.Info, error) {
	h, err := s.EnsureHandle()
	if err != nil {
		return nil, err
	}
	return h.Info(), nil
}

// Restart restarts the selected bootloader so it runs the application.
func (s *Session) Restart() error {
	h, err := s.EnsureHandle()
	if err != nil {
		return err
	}
	return errorcodes.Failed(h.Restart())
}

func (s *Session) closeHandle() {
	if s.handle == nil {
		return
	}
	if err := s.handle.Close(); err != nil {
		logrus.WithError(err).Warn("Closing bootloader")
	}
	s.handle = nil
}

// Close releases the connection and the device list. It is safe to call
// at any time and more than once.
func (s *Session) Close() {
	s.closeHandle()
	s.list = nil
}
