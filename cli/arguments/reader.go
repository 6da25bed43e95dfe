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
	"strings"

	"github.com/bootflash/p-load/errorcodes"
	"github.com/spf13/pflag"
)

// Reader hands out the command-line tokens in order, so an option can
// consume the tokens that follow it. It implements pipeline.ArgSource.
type Reader struct {
	args []string
	last string
}

// NewReader returns a Reader over args.
func NewReader(args []string) *Reader {
	return &Reader{args: args}
}

// Next returns the next token.
func (r *Reader) Next() (string, bool) {
	if len(r.args) == 0 {
		return "", false
	}
	r.last, r.args = r.args[0], r.args[1:]
	return r.last, true
}

// Last returns the token returned last by Next.
func (r *Reader) Last() string {
	return r.last
}

// NextFlag reads the next token and resolves it to one of the flags of
// the set. A "--name=value" token is split and the value is handed out by
// the following Next. It returns nil when there are no tokens left.
func (r *Reader) NextFlag(flags *pflag.FlagSet) (*pflag.Flag, error) {
	tok, ok := r.Next()
	if !ok {
		return nil, nil
	}

	var f *pflag.Flag
	switch {
	case strings.HasPrefix(tok, "--") && len(tok) > 2:
		name := tok[2:]
		if i := strings.IndexByte(name, '='); i >= 0 {
			r.args = append([]string{name[i+1:]}, r.args...)
			name = name[:i]
			r.last = "--" + name
		}
		f = flags.Lookup(name)
	case len(tok) == 2 && tok[0] == '-' && tok[1] != '-':
		f = flags.ShorthandLookup(tok[1:])
	}
	if f == nil {
		return nil, errorcodes.BadArgs("Unknown option: %s", tok)
	}
	return f, nil
}
