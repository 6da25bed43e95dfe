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

package pipeline

// Args is an ArgSource over a fixed list of tokens.
type Args struct {
	tokens []string
	last   string
}

// NewArgs returns an ArgSource handing out tokens in order. last is
// reported by Last until a token is consumed.
func NewArgs(last string, tokens ...string) *Args {
	return &Args{tokens: tokens, last: last}
}

// Next implements ArgSource.
func (a *Args) Next() (string, bool) {
	if len(a.tokens) == 0 {
		return "", false
	}
	a.last, a.tokens = a.tokens[0], a.tokens[1:]
	return a.last, true
}

// Last implements ArgSource.
func (a *Args) Last() string {
	return a.last
}
