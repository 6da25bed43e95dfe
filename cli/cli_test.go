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
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/bootflash/p-load/cli/feedback"
	"github.com/bootflash/p-load/errorcodes"
	"github.com/bootflash/p-load/ihex"
	"github.com/bootflash/p-load/ploader"
	"github.com/bootflash/p-load/ploader/ploadertest"
	"github.com/bootflash/p-load/regions"
	"github.com/bootflash/p-load/session"
	"github.com/stretchr/testify/require"
)

type output struct {
	out, err *bytes.Buffer
}

func captureOutput(t *testing.T) *output {
	o := &output{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	feedback.Reset()
	feedback.SetOut(o.out, true)
	feedback.SetErr(o.err)
	t.Cleanup(feedback.Reset)
	return o
}

func tempDir(t *testing.T) *paths.Path {
	dir, err := paths.MkTempDir("", "p-load-test")
	require.NoError(t, err)
	t.Cleanup(func() { dir.RemoveAll() })
	return dir
}

func pstarInfo() *ploader.Info {
	p := ploader.Types()[0]
	return &ploader.Info{
		Name:                 p.Name,
		AppAddress:           p.AppAddress,
		AppSize:              p.AppSize,
		EepromAddress:        p.EepromAddress,
		EepromAddressHexFile: p.EepromAddressHexFile,
		EepromSize:           p.EepromSize,
	}
}

// writeHexFile creates a HEX file with a small application and EEPROM
// content and returns the images it holds.
func writeHexFile(t *testing.T, file *paths.Path) (flash, eeprom *regions.Image) {
	info := pstarInfo()
	flash = regions.NewImage(info, regions.Flash)
	eeprom = regions.NewImage(info, regions.Eeprom)
	copy(flash.Data, []byte{0xEF, 0x04, 0xF0, 0x10})
	copy(flash.Data[0x3000:], []byte("p-load"))
	copy(eeprom.Data, []byte{1, 2, 3, 4})

	out, err := file.Create()
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, ihex.Encode(out, regions.Descriptors(flash, eeprom)))
	return flash, eeprom
}

func TestNoArguments(t *testing.T) {
	o := captureOutput(t)
	code := Execute(nil, ploadertest.New())
	require.Equal(t, errorcodes.ErrBadArgs, code)
	require.Contains(t, o.out.String(), "--write-flash HEXFILE")
}

func TestHelp(t *testing.T) {
	o := captureOutput(t)
	require.Equal(t, errorcodes.Success, Execute([]string{"--help"}, ploadertest.New()))
	require.Contains(t, o.out.String(), "p-load OPTIONS")
}

func TestBadArguments(t *testing.T) {
	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"--bogus"}, "Unknown option: --bogus"},
		{[]string{"app.hex"}, "Unknown option: app.hex"},
		{[]string{"--write"}, "Expected a filename after --write."},
		{[]string{"--erase", "-w"}, "Expected a filename after -w."},
		{[]string{"-d"}, "Expected a serial number after -d."},
		{[]string{"-d", "1", "--serial", "2"}, "Serial number can only be specified once."},
		{[]string{"--wait-timeout", "soon"}, "Invalid value for --wait-timeout: soon"},
		{[]string{"--log-level", "loud", "--list"}, "Invalid option for --log-level: loud"},
		{[]string{"--format", "xml", "--list"}, "Invalid output format: xml"},
	}
	for _, test := range tests {
		t.Run(strings.Join(test.args, " "), func(t *testing.T) {
			o := captureOutput(t)
			bl := ploadertest.NewBootloader("01-AA")
			tr := ploadertest.New(bl)
			require.Equal(t, errorcodes.ErrBadArgs, Execute(test.args, tr))
			require.Equal(t, "Error: "+test.msg+"\n", o.err.String())
			require.Zero(t, tr.Opens())
			require.Empty(t, bl.Requests)
		})
	}
}

func TestWriteAndRestart(t *testing.T) {
	o := captureOutput(t)
	dir := tempDir(t)
	file := dir.Join("app.hex")
	flash, eeprom := writeHexFile(t, file)

	bl := ploadertest.NewBootloader("01-AA")
	tr := ploadertest.New(bl)
	code := Execute([]string{"-w", file.String()}, tr)
	require.Equal(t, errorcodes.Success, code, o.err.String())
	require.Equal(t, flash.Data, bl.Flash)
	require.Equal(t, eeprom.Data, bl.Eeprom)
	require.Equal(t, 1, bl.Restarts)
	require.Equal(t, 1, tr.Opens())
	require.Equal(t, 0, tr.OpenConns())

	// Flash is written before EEPROM and the restart comes last.
	firstEeprom := indexOf(bl.Requests, ploader.RequestWriteEeprom)
	lastFlash := lastIndexOf(bl.Requests, ploader.RequestWriteFlashBlock)
	require.Less(t, lastFlash, firstEeprom)
	require.Equal(t, ploader.RequestRestart, bl.Requests[len(bl.Requests)-1])

	stdout := o.out.String()
	require.True(t, strings.HasPrefix(stdout, "Bootloader:    Pololu P-Star 25K50 Bootloader\nSerial number: 01-AA\n"), stdout)
	require.Contains(t, stdout, "Erasing flash...\n")
	require.Contains(t, stdout, "Writing flash...\n")
	require.Contains(t, stdout, "Writing EEPROM...\n")
	require.Contains(t, stdout, "| Done.")
	require.Empty(t, o.err.String())
}

func indexOf(reqs []uint8, r uint8) int {
	for i, v := range reqs {
		if v == r {
			return i
		}
	}
	return -1
}

func lastIndexOf(reqs []uint8, r uint8) int {
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i] == r {
			return i
		}
	}
	return -1
}

func TestMissingFileAbortsBeforeAnyMutation(t *testing.T) {
	o := captureOutput(t)
	dir := tempDir(t)
	missing := dir.Join("missing.hex")

	bl := ploadertest.NewBootloader("01-AA")
	bl.Flash[0] = 0x42
	tr := ploadertest.New(bl)
	code := Execute([]string{"--erase", "--write", missing.String(), "--restart"}, tr)
	require.Equal(t, errorcodes.ErrOperationFailed, code)
	require.Equal(t, "Error: "+missing.String()+": no such file or directory\n", o.err.String())
	require.Equal(t, byte(0x42), bl.Flash[0])
	require.Zero(t, bl.Restarts)
	require.NotContains(t, bl.Requests, ploader.RequestInitialize)
	require.NotContains(t, bl.Requests, ploader.RequestWriteEeprom)
	require.Equal(t, 0, tr.OpenConns())
}

func TestReadBack(t *testing.T) {
	captureOutput(t)
	dir := tempDir(t)
	in := dir.Join("app.hex")
	flash, eeprom := writeHexFile(t, in)
	out := dir.Join("dump.hex")
	outEeprom := dir.Join("eeprom.hex")

	bl := ploadertest.NewBootloader("01-AA")
	code := Execute([]string{
		"--write", in.String(),
		"--read", out.String(),
		"--read-eeprom=" + outEeprom.String(),
	}, ploadertest.New(bl))
	require.Equal(t, errorcodes.Success, code)
	require.Zero(t, bl.Restarts)

	info := pstarInfo()
	flash2 := regions.NewReadImage(info, regions.Flash)
	eeprom2 := regions.NewReadImage(info, regions.Eeprom)
	require.NoError(t, ihex.ReadFile(out, regions.Descriptors(flash2, eeprom2)))
	require.Equal(t, flash.Data, flash2.Data)
	require.Equal(t, eeprom.Data, eeprom2.Data)

	// Only EEPROM is in the second file.
	flash3 := regions.NewImage(info, regions.Flash)
	eeprom3 := regions.NewReadImage(info, regions.Eeprom)
	require.NoError(t, ihex.ReadFile(outEeprom, regions.Descriptors(flash3, eeprom3)))
	require.Equal(t, eeprom.Data, eeprom3.Data)
	require.Equal(t, regions.NewImage(info, regions.Flash).Data, flash3.Data)
}

func TestSingleRegionWrites(t *testing.T) {
	captureOutput(t)
	dir := tempDir(t)
	file := dir.Join("app.hex")
	flash, eeprom := writeHexFile(t, file)

	bl := ploadertest.NewBootloader("01-AA")
	require.Equal(t, errorcodes.Success, Execute([]string{"--write-eeprom", file.String()}, ploadertest.New(bl)))
	require.Equal(t, eeprom.Data, bl.Eeprom)
	require.False(t, bl.HasApp())
	require.NotContains(t, bl.Requests, ploader.RequestInitialize)

	bl = ploadertest.NewBootloader("01-AA")
	require.Equal(t, errorcodes.Success, Execute([]string{"--write-flash", file.String()}, ploadertest.New(bl)))
	require.Equal(t, flash.Data, bl.Flash)
	require.NotContains(t, bl.Requests, ploader.RequestWriteEeprom)
}

func TestErase(t *testing.T) {
	captureOutput(t)
	bl := ploadertest.NewBootloader("01-AA")
	bl.Flash[10] = 0
	bl.Eeprom[3] = 7
	require.Equal(t, errorcodes.Success, Execute([]string{"--erase-eeprom"}, ploadertest.New(bl)))
	require.Equal(t, byte(0), bl.Flash[10])
	require.Equal(t, byte(0xFF), bl.Eeprom[3])

	require.Equal(t, errorcodes.Success, Execute([]string{"--erase"}, ploadertest.New(bl)))
	require.False(t, bl.HasApp())
	require.Zero(t, bl.BlockWrites)
}

func TestMultipleBootloaders(t *testing.T) {
	o := captureOutput(t)
	a, b := ploadertest.NewBootloader("01-AA"), ploadertest.NewBootloader("02-BB")
	tr := ploadertest.New(a, b)
	require.Equal(t, errorcodes.ErrOperationFailed, Execute([]string{"--erase"}, tr))
	require.Contains(t, o.err.String(), "There are multiple qualifying bootloaders")
	require.Zero(t, tr.Opens())

	require.Equal(t, errorcodes.Success, Execute([]string{"-d", "02-BB", "--erase-flash", "--restart"}, tr))
	require.Equal(t, 1, b.Restarts)
	require.Zero(t, a.Restarts)
	require.Empty(t, a.Requests)
}

func TestNotFound(t *testing.T) {
	o := captureOutput(t)
	require.Equal(t, errorcodes.ErrBootloaderNotFound, Execute([]string{"--restart"}, ploadertest.New()))
	require.Equal(t, "Error: No bootloader found.\n", o.err.String())

	o = captureOutput(t)
	tr := ploadertest.New(ploadertest.NewBootloader("01-AA"))
	require.Equal(t, errorcodes.ErrBootloaderNotFound, Execute([]string{"-d", "9", "--erase"}, tr))
	require.Equal(t, "Error: No bootloader found with serial number '9'.\n", o.err.String())
}

func TestWait(t *testing.T) {
	o := captureOutput(t)
	clock := time.Unix(0, 0)
	sleeps := 0
	withClock := session.WithClock(
		func() time.Time { return clock },
		func(d time.Duration) { sleeps++; clock = clock.Add(d) })

	tr := ploadertest.New()
	code := Execute([]string{"--wait", "--wait-timeout", "1s", "--wait-interval", "250ms", "--erase"}, tr, withClock)
	require.Equal(t, errorcodes.ErrBootloaderNotFound, code)
	require.Equal(t, 5, sleeps)
	require.Equal(t, "Error: No bootloader found.\n", o.err.String())

	bl := ploadertest.NewBootloader("01-AA")
	tr = ploadertest.New()
	tr.OnDevices = func(call int) {
		if call == 3 {
			tr.Add(bl)
		}
	}
	sleeps = 0
	require.Equal(t, errorcodes.Success, Execute([]string{"--wait", "--restart"}, tr, withClock))
	require.Equal(t, 2, sleeps)
	require.Equal(t, 1, bl.Restarts)
}

func TestList(t *testing.T) {
	o := captureOutput(t)
	withApp := ploadertest.NewBootloader("01-AA")
	withApp.Flash[0] = 0
	tr := ploadertest.New(withApp, ploadertest.NewBootloader("02-BB"))
	require.Equal(t, errorcodes.Success, Execute([]string{"--list"}, tr))
	lines := strings.Split(strings.TrimSpace(o.out.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "01-AA")
	require.Contains(t, lines[0], "Pololu P-Star 25K50 Bootloader")
	require.Contains(t, lines[0], "App present")
	require.Contains(t, lines[1], "No app present")
	require.Equal(t, 0, tr.OpenConns())
}

func TestListNothingFound(t *testing.T) {
	o := captureOutput(t)
	require.Equal(t, errorcodes.ErrBootloaderNotFound, Execute([]string{"--list"}, ploadertest.New()))
	require.Equal(t, "No bootloader found.\n", o.out.String())
	require.Empty(t, o.err.String())
}

func TestListSupportedJSON(t *testing.T) {
	o := captureOutput(t)
	require.Equal(t, errorcodes.Success, Execute([]string{"--format", "json", "--list-supported"}, ploadertest.New()))
	require.Contains(t, o.out.String(), `"name": "Pololu P-Star 25K50 Bootloader"`)
	require.Contains(t, o.out.String(), `"vendor_id": 8187`)
}

func TestVersion(t *testing.T) {
	o := captureOutput(t)
	require.Equal(t, errorcodes.Success, Execute([]string{"--version"}, ploadertest.New()))
	require.Contains(t, o.out.String(), "p-load Version:")
}

func TestReadToUnwritablePath(t *testing.T) {
	o := captureOutput(t)
	dir := tempDir(t)
	target := dir.Join("no", "such", "dir.hex")
	bl := ploadertest.NewBootloader("01-AA")
	tr := ploadertest.New(bl)
	code := Execute([]string{"--read", target.String(), "--erase"}, tr)
	require.Equal(t, errorcodes.ErrOperationFailed, code)
	require.Equal(t, "Error: "+target.String()+": no such file or directory\n", o.err.String())
	require.NotContains(t, bl.Requests, ploader.RequestInitialize)
}

func TestLogFile(t *testing.T) {
	captureOutput(t)
	dir := tempDir(t)
	logFile := dir.Join("p-load.log")
	code := Execute([]string{"--log-file", logFile.String(), "--log-level", "debug", "--list-supported"}, ploadertest.New())
	require.Equal(t, errorcodes.Success, code)
	data, err := os.ReadFile(logFile.String())
	require.NoError(t, err)
	require.Contains(t, string(data), "p-load Version")
}
