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

package arguments

import (
	"time"

	"github.com/bootflash/p-load/cli/globals"
	"github.com/spf13/cobra"
)

// Flags contains the options that are not actions. Action flags are
// registered by the actions package.
type Flags struct {
	SerialNumber string
	Wait         bool
	WaitTimeout  time.Duration
	WaitInterval time.Duration
	Restart      bool

	OutputFormat string
	Verbose      bool
	LogFile      string
	LogFormat    string
	LogLevel     string

	Version bool
	Help    bool
}

// AddToCommand registers the flags on the command.
func (f *Flags) AddToCommand(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.SerialNumber, "serial", "d", "", "Select the bootloader with the given `SERIALNUMBER`.")
	flags.BoolVar(&f.Wait, "wait", false, "If no bootloader is found, wait for one to appear.")
	flags.DurationVar(&f.WaitTimeout, "wait-timeout", globals.DefaultWaitTimeout, "How long --wait keeps looking for a bootloader.")
	flags.DurationVar(&f.WaitInterval, "wait-interval", globals.DefaultWaitInterval, "Delay between two attempts of --wait.")
	flags.BoolVar(&f.Restart, "restart", false, "Restarts the device so it can run the new code.")

	flags.StringVar(&f.OutputFormat, "format", "text", "The output format, can be {text|json}.")
	flags.StringVar(&f.LogFile, "log-file", "", "Path to the file where logs will be written.")
	flags.StringVar(&f.LogFormat, "log-format", "", "The output format for the logs, can be {text|json}.")
	flags.StringVar(&f.LogLevel, "log-level", globals.DefaultLogLevel, "Messages with this level and above will be logged. Valid levels are: trace, debug, info, warn, error, fatal, panic")
	flags.BoolVarP(&f.Verbose, "verbose", "v", false, "Print the logs on the standard output.")

	flags.BoolVar(&f.Version, "version", false, "Print the version and exit.")
	flags.BoolVarP(&f.Help, "help", "h", false, "Print this help and exit.")
}
