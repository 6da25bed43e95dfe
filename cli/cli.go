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
	"io"
	"os"
	"strings"

	"github.com/bootflash/p-load/cli/actions"
	"github.com/bootflash/p-load/cli/arguments"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/session"
	"github.com/bootflash/p-load/usb"
	v "github.com/bootflash/p-load/version"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const long = `p-load: USB Bootloader Utility

Options are processed in the order given. Every device operation is
validated before the first one is performed, so a missing or broken file
aborts the run without touching the device.

HEXFILE is the name of the .HEX file to be used.

Exit codes: 0 success, 1 bad arguments, 2 operation failed,
3 bootloader not found.`

// NewCommand returns the p-load root command, talking to the devices
// through libusb.
func NewCommand() *cobra.Command {
	transport := usb.New()
	var code errorcodes.ExitCode
	cmd := newCommand(transport, &code)
	runP := cmd.Run
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runP(cmd, args)
		if err := transport.Close(); err != nil {
			logrus.WithError(err).Warn("Closing USB context")
		}
		os.Exit(int(code))
	}
	return cmd
}

func newCommand(transport ploader.Transport, exitCode *errorcodes.ExitCode, opts ...session.Option) *cobra.Command {
	flags := &arguments.Flags{}
	cmd := &cobra.Command{
		Use:   "p-load OPTIONS",
		Short: "Flashes firmware and EEPROM into USB bootloaders.",
		Long:  long,
		Example: "  p-load -w app.hex\n" +
			"  p-load -d 12345678 --wait --write-flash app.hex --restart\n" +
			"  p-load --erase",
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Run: func(cmd *cobra.Command, args []string) {
			*exitCode = run(cmd, flags, args, transport, opts...)
		},
	}
	actions.AddToCommand(cmd)
	flags.AddToCommand(cmd)
	return cmd
}

// Convert the string passed to the `--log-level` option to the corresponding
// logrus formal level.
func toLogLevel(s string) (t logrus.Level, found bool) {
	t, found = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}[s]

	return
}

// setup configures logging and the feedback output from the parsed flags.
// The returned function closes the log file, if any.
func setup(flags *arguments.Flags) (func(), error) {
	// Prepare the Feedback system
	outputFormat := strings.ToLower(flags.OutputFormat)
	format, found := feedback.ParseOutputFormat(outputFormat)
	if !found {
		return nil, errorcodes.BadArgs("Invalid output format: %s", flags.OutputFormat)
	}
	feedback.SetFormat(format)

	// Prepare logging
	logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	if flags.Verbose {
		// if we print on stdout, do it in full colors
		logrus.SetOutput(colorable.NewColorableStdout())
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: true,
		})
	} else {
		logrus.SetOutput(io.Discard)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	logFormat := strings.ToLower(flags.LogFormat)
	if logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Configure logging filter
	lvl, found := toLogLevel(flags.LogLevel)
	if !found {
		return nil, errorcodes.BadArgs("Invalid option for --log-level: %s", flags.LogLevel)
	}
	logrus.SetLevel(lvl)

	closeLog := func() {}
	if flags.LogFile != "" {
		file, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, errorcodes.Failed(errors.Wrap(err, "Unable to open file for logging"))
		}
		closeLog = func() {
			logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
			file.Close()
		}

		// Use a hook so we don't get color codes in the log file
		if logFormat == "json" {
			logrus.AddHook(lfshook.NewHook(file, &logrus.JSONFormatter{}))
		} else {
			logrus.AddHook(lfshook.NewHook(file, &logrus.TextFormatter{}))
		}
	}

	logrus.Info(v.VersionInfo)
	return closeLog, nil
}
