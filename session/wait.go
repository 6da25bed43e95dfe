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

package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// WaitUntilAvailable discovers the devices again and again until a
// bootloader matching the filter shows up, sleeping interval between
// attempts. It gives up once more than timeout has elapsed.
func (s *Session) WaitUntilAvailable(timeout, interval time.Duration) error {
	start := s.now()
	for attempt := 1; ; attempt++ {
		s.InvalidateList()
		list, err := s.EnsureList()
		if err != nil {
			return err
		}
		if list.Len() > 0 {
			logrus.Debugf("Bootloader found after %d attempt(s)", attempt)
			return nil
		}
		s.InvalidateList()

		if s.now().Sub(start) > timeout {
			logrus.Debugf("Gave up waiting after %d attempt(s)", attempt)
			return s.NotFound()
		}
		s.sleep(interval)
	}
}
