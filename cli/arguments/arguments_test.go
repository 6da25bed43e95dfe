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
	"testing"
	"time"

	"github.com/bootflash/p-load/errorcodes"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNextFlag(t *testing.T) {
	cmd := &cobra.Command{}
	f := &Flags{}
	f.AddToCommand(cmd)

	r := NewReader([]string{"-d", "01-AA", "--wait-timeout=2s", "--wait", "-x"})
	flag, err := r.NextFlag(cmd.Flags())
	require.NoError(t, err)
	require.Equal(t, "serial", flag.Name)
	require.Equal(t, "-d", r.Last())
	sn, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, "01-AA", sn)

	flag, err = r.NextFlag(cmd.Flags())
	require.NoError(t, err)
	require.Equal(t, "wait-timeout", flag.Name)
	require.Equal(t, "--wait-timeout", r.Last())
	v, ok := r.Next()
	require.True(t, ok)
	require.NoError(t, flag.Value.Set(v))
	require.Equal(t, 2*time.Second, f.WaitTimeout)

	flag, err = r.NextFlag(cmd.Flags())
	require.NoError(t, err)
	require.Equal(t, "wait", flag.Name)

	_, err = r.NextFlag(cmd.Flags())
	require.EqualError(t, err, "Unknown option: -x")
	require.Equal(t, errorcodes.ErrBadArgs, errorcodes.Code(err))

	flag, err = r.NextFlag(cmd.Flags())
	require.NoError(t, err)
	require.Nil(t, flag)
}

func TestUnknownTokens(t *testing.T) {
	cmd := &cobra.Command{}
	(&Flags{}).AddToCommand(cmd)
	for _, tok := range []string{"app.hex", "--", "-", "--nope", "-dx"} {
		_, err := NewReader([]string{tok}).NextFlag(cmd.Flags())
		require.EqualError(t, err, "Unknown option: "+tok)
	}
}

func TestDefaults(t *testing.T) {
	cmd := &cobra.Command{}
	f := &Flags{}
	f.AddToCommand(cmd)
	require.Equal(t, 10*time.Second, f.WaitTimeout)
	require.Equal(t, 100*time.Millisecond, f.WaitInterval)
	require.Equal(t, "info", f.LogLevel)
	require.Equal(t, "text", f.OutputFormat)
}
