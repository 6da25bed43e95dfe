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

// Package actions implements the operations that can be requested on the
// command line, as pipeline actions bound to a device session.
package actions

import (
	"github.com/bootflash/p-load/pipeline"
	"github.com/bootflash/p-load/session"
	"github.com/spf13/cobra"
)

// Factory creates an action working on the session.
type Factory func(s *session.Session) pipeline.Action

// Definition describes the command-line flag that queues an action.
type Definition struct {
	Name      string
	Shorthand string
	Usage     string
	// TakesFile is set for flags followed by a file name.
	TakesFile bool
	// Restart is set for flags that also restart the device at the end.
	Restart bool
	New     Factory
}

// All lists the actions in the order they are shown in the help.
var All = []*Definition{
	{Name: "list", Usage: "Lists bootloaders connected to this computer.",
		New: func(s *session.Session) pipeline.Action { return newListDevices(s) }},
	{Name: "list-supported", Usage: "Lists all the bootloader types supported.",
		New: func(s *session.Session) pipeline.Action { return &listSupported{} }},
	{Name: "write-and-restart", Shorthand: "w", TakesFile: true, Restart: true,
		Usage: "Writes `HEXFILE` to flash and EEPROM, then restarts the device.",
		New:   func(s *session.Session) pipeline.Action { return newHexFileWriter(s, true, true) }},
	{Name: "write", TakesFile: true, Usage: "Writes `HEXFILE` to flash and EEPROM.",
		New: func(s *session.Session) pipeline.Action { return newHexFileWriter(s, true, true) }},
	{Name: "write-flash", TakesFile: true, Usage: "Writes `HEXFILE` to flash only.",
		New: func(s *session.Session) pipeline.Action { return newHexFileWriter(s, true, false) }},
	{Name: "write-eeprom", TakesFile: true, Usage: "Writes `HEXFILE` to EEPROM only.",
		New: func(s *session.Session) pipeline.Action { return newHexFileWriter(s, false, true) }},
	{Name: "erase", Usage: "Erases flash and EEPROM.",
		New: func(s *session.Session) pipeline.Action { return newEraser(s, true, true) }},
	{Name: "erase-flash", Usage: "Erases flash only.",
		New: func(s *session.Session) pipeline.Action { return newEraser(s, true, false) }},
	{Name: "erase-eeprom", Usage: "Erases EEPROM only.",
		New: func(s *session.Session) pipeline.Action { return newEraser(s, false, true) }},
	{Name: "read", TakesFile: true, Usage: "Reads flash and EEPROM and saves them to `HEXFILE`.",
		New: func(s *session.Session) pipeline.Action { return newHexFileReader(s, true, true) }},
	{Name: "read-flash", TakesFile: true, Usage: "Reads flash and saves it to `HEXFILE`.",
		New: func(s *session.Session) pipeline.Action { return newHexFileReader(s, true, false) }},
	{Name: "read-eeprom", TakesFile: true, Usage: "Reads EEPROM and saves it to `HEXFILE`.",
		New: func(s *session.Session) pipeline.Action { return newHexFileReader(s, false, true) }},
}

// Lookup returns the action queued by the flag with the given long name.
func Lookup(name string) *Definition {
	for _, def := range All {
		if def.Name == name {
			return def
		}
	}
	return nil
}

// AddToCommand registers a flag for every action on the command, so they
// show up in the help. Their values are consumed by the actions themselves.
func AddToCommand(cmd *cobra.Command) {
	flags := cmd.Flags()
	for _, def := range All {
		if def.TakesFile {
			flags.StringP(def.Name, def.Shorthand, "", def.Usage)
		} else {
			flags.BoolP(def.Name, def.Shorthand, false, def.Usage)
		}
	}
}
