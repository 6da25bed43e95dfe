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

// Package pipeline runs a queue of actions in two passes: every action is
// prepared before any of them is executed.
package pipeline

import (
	"github.com/bootflash/p-load/errorcodes"
	"github.com/sirupsen/logrus"
)

// ArgSource hands out the command-line tokens that follow an action's flag.
type ArgSource interface {
	// Next returns the next token, or false if there is none.
	Next() (string, bool)
	// Last returns the token that was consumed last, usually the flag that
	// queued the action.
	Last() string
}

// Action is a unit of work requested on the command line.
type Action interface {
	// Allocate creates the private state of the action.
	Allocate() error
	// Parse consumes the arguments of the action.
	Parse(args ArgSource) error
	// Prepare validates and loads inputs. It must not change the device.
	Prepare() error
	// Execute performs the action.
	Execute() error
	// Release frees the state of the action. It is always called, even if
	// an earlier phase failed or never ran.
	Release()
}

// Base implements every phase of Action as a no-op. Embed it and override
// the phases the action needs.
type Base struct{}

func (Base) Allocate() error       { return nil }
func (Base) Parse(ArgSource) error { return nil }
func (Base) Prepare() error        { return nil }
func (Base) Execute() error        { return nil }
func (Base) Release()              {}

type entry struct {
	action   Action
	released bool
}

// Pipeline is an ordered queue of actions.
type Pipeline struct {
	entries  []*entry
	prepared bool
}

// Len returns the number of queued actions.
func (p *Pipeline) Len() int {
	return len(p.entries)
}

// Append queues the action, then allocates it and parses its arguments.
// The action stays queued even if that fails, so ReleaseAll frees it.
func (p *Pipeline) Append(a Action, args ArgSource) error {
	p.entries = append(p.entries, &entry{action: a})
	p.prepared = false
	if err := a.Allocate(); err != nil {
		return err
	}
	return a.Parse(args)
}

// RunPreparePass prepares every action in order and stops at the first
// failure.
func (p *Pipeline) RunPreparePass() error {
	p.prepared = false
	for i, e := range p.entries {
		logrus.Debugf("Preparing action %d of %d", i+1, len(p.entries))
		if err := e.action.Prepare(); err != nil {
			return err
		}
	}
	p.prepared = true
	return nil
}

// RunExecutePass executes every action in order and stops at the first
// failure. Nothing runs unless the last prepare pass succeeded.
func (p *Pipeline) RunExecutePass() error {
	if !p.prepared {
		return errorcodes.Failedf("cannot execute actions that were not all prepared successfully")
	}
	for i, e := range p.entries {
		logrus.Debugf("Executing action %d of %d", i+1, len(p.entries))
		if err := e.action.Execute(); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll releases every queued action. It is safe to call more than once.
func (p *Pipeline) ReleaseAll() {
	for _, e := range p.entries {
		if e.released {
			continue
		}
		e.released = true
		e.action.Release()
	}
}
