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

package cli

import (
	"github.com/bootflash/p-load/cli/actions"
	"github.com/bootflash/p-load/cli/arguments"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/pipeline"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/session"
	v "github.com/bootflash/p-load/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Execute runs p-load with the given arguments against the transport and
// returns the exit code. Options are passed to the device session.
func Execute(args []string, transport ploader.Transport, opts ...session.Option) errorcodes.ExitCode {
	var code errorcodes.ExitCode
	cmd := newCommand(transport, &code, opts...)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return report(errorcodes.BadArgs("%s", err))
	}
	return code
}

func run(cmd *cobra.Command, flags *arguments.Flags, args []string, transport ploader.Transport, opts ...session.Option) errorcodes.ExitCode {
	if len(args) == 0 {
		cmd.SetOut(feedback.Out())
		cmd.Help()
		return errorcodes.ErrBadArgs
	}

	s := session.New(transport, opts...)
	defer s.Close()
	p := &pipeline.Pipeline{}
	defer p.ReleaseAll()

	if err := parse(cmd, flags, args, s, p); err != nil {
		return report(err)
	}
	if flags.Help {
		cmd.SetOut(feedback.Out())
		cmd.Help()
		return errorcodes.Success
	}

	closeLog, err := setup(flags)
	if err != nil {
		return report(err)
	}
	defer closeLog()

	if flags.Version {
		feedback.PrintResult(v.VersionInfo)
		return errorcodes.Success
	}
	return report(execute(flags, s, p))
}

// parse reads the arguments in order, queueing an action for every action
// flag and recording the other options.
func parse(cmd *cobra.Command, flags *arguments.Flags, args []string, s *session.Session, p *pipeline.Pipeline) error {
	r := arguments.NewReader(args)
	for {
		f, err := r.NextFlag(cmd.Flags())
		if err != nil {
			return err
		}
		if f == nil {
			return nil
		}

		if def := actions.Lookup(f.Name); def != nil {
			if def.Restart {
				flags.Restart = true
			}
			if err := p.Append(def.New(s), r); err != nil {
				return err
			}
			continue
		}

		flagName := r.Last()
		switch {
		case f.Name == "serial":
			sn, ok := r.Next()
			if !ok {
				return errorcodes.BadArgs("Expected a serial number after %s.", flagName)
			}
			if err := s.SetSerialNumber(sn); err != nil {
				return err
			}
			flags.SerialNumber = sn
		case f.Value.Type() == "bool":
			f.Value.Set("true")
		default:
			val, ok := r.Next()
			if !ok {
				return errorcodes.BadArgs("Expected a value after %s.", flagName)
			}
			if err := f.Value.Set(val); err != nil {
				return errorcodes.BadArgs("Invalid value for %s: %s", flagName, val)
			}
		}
	}
}

// execute waits for the device if asked, prepares and executes the queued
// actions and finally restarts the device if asked.
func execute(flags *arguments.Flags, s *session.Session, p *pipeline.Pipeline) error {
	if flags.Wait {
		if err := s.WaitUntilAvailable(flags.WaitTimeout, flags.WaitInterval); err != nil {
			return err
		}
	}
	if err := p.RunPreparePass(); err != nil {
		return err
	}
	if err := p.RunExecutePass(); err != nil {
		return err
	}
	if flags.Restart {
		return s.Restart()
	}
	return nil
}

// report prints err, if any, and returns the exit code it maps to.
func report(err error) errorcodes.ExitCode {
	code := errorcodes.Code(err)
	if err == nil {
		return code
	}
	logrus.WithError(err).WithField("exit_code", int(code)).Debug("Run failed")
	if errorcodes.IsInfo(err) {
		feedback.Info(err.Error())
	} else {
		feedback.Error(err.Error())
	}
	return code
}
