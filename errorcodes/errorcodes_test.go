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

package errorcodes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	require.Equal(t, Success, Code(nil))
	require.Equal(t, ErrBadArgs, Code(BadArgs("Unknown option: %s", "--foo")))
	require.Equal(t, ErrBootloaderNotFound, Code(NotFound("No bootloader found.")))
	require.Equal(t, ErrOperationFailed, Code(Failedf("boom")))
	require.Equal(t, ErrOperationFailed, Code(errors.New("plain")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := errors.Wrap(NotFound("No bootloader found."), "preparing --erase")
	require.Equal(t, ErrBootloaderNotFound, Code(err))
	require.Equal(t, "preparing --erase: No bootloader found.", err.Error())
}

func TestFailedKeepsExistingCode(t *testing.T) {
	require.Nil(t, Failed(nil))
	require.Equal(t, ErrBadArgs, Code(Failed(BadArgs("x"))))
	require.Equal(t, ErrOperationFailed, Code(Failed(errors.New("disk full"))))
}

func TestAsInfo(t *testing.T) {
	err := NotFound("No bootloader found with serial number '%s'.", "ABC123")
	require.False(t, IsInfo(err))

	info := AsInfo(err)
	require.True(t, IsInfo(info))
	require.Equal(t, ErrBootloaderNotFound, Code(info))
	require.Equal(t, err.Error(), info.Error())

	require.True(t, IsInfo(AsInfo(errors.New("plain"))))
	require.False(t, IsInfo(nil))
}

func TestExitCodeValues(t *testing.T) {
	require.Equal(t, 0, int(Success))
	require.Equal(t, 1, int(ErrBadArgs))
	require.Equal(t, 2, int(ErrOperationFailed))
	require.Equal(t, 3, int(ErrBootloaderNotFound))
	require.Equal(t, "bootloader not found", ErrBootloaderNotFound.String())
}
