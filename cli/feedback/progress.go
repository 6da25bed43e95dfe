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

package feedback

import (
	"fmt"
	"strings"
)

const barWidth = 58

var (
	lineHasBar   bool
	barLength    = -1
	currentState string
)

func resetProgress() {
	lineHasBar, barLength, currentState = false, -1, ""
}

// startNewLine ends a progress bar line so the next message starts on a
// fresh line.
func startNewLine() {
	if lineHasBar {
		fmt.Fprintln(stdOut)
	}
	resetProgress()
}

// Progress prints the status of a long operation followed by a progress
// bar. The status is printed again only when it changes and the bar is
// redrawn only when its length changes.
func Progress(status string, progress, maxProgress uint32) {
	if !interactive || format != Text {
		return
	}
	if status != currentState {
		startNewLine()
		currentState = status
		fmt.Fprintln(stdOut, status)
	}
	if maxProgress == 0 {
		return
	}
	scaled := int(min(uint64(progress)*barWidth/uint64(maxProgress), barWidth))
	if scaled == barLength {
		return
	}
	bar := strings.Repeat("#", scaled) + strings.Repeat(" ", barWidth-scaled)
	fmt.Fprintf(stdOut, "\rProgress: |%s|", bar)
	lineHasBar = true
	barLength = scaled
	if progress == maxProgress {
		fmt.Fprint(stdOut, " Done.")
		startNewLine()
		// A repeated final report prints nothing.
		currentState = status
		barLength = scaled
	}
}
