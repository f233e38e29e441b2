/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

const MillimetresPerInch = 25.4

// Unit is the display unit. The core always computes in millimetres.
type Unit string

const (
	UnitMillimetre Unit = "mm"
	UnitInch       Unit = "in"
)

// ParseUnit accepts "mm" or "in" (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitMillimetre:
		return UnitMillimetre, nil
	case UnitInch:
		return UnitInch, nil
	}
	return "", fmt.Errorf("unknown unit %q (want mm or in)", s)
}

// ToMillimetres converts v expressed in u to millimetres.
func (u Unit) ToMillimetres(v float64) float64 {
	if u == UnitInch {
		return v * MillimetresPerInch
	}
	return v
}

// FromMillimetres converts v millimetres to u.
func (u Unit) FromMillimetres(v float64) float64 {
	if u == UnitInch {
		return v / MillimetresPerInch
	}
	return v
}

// Format renders a millimetre length in u with a unit suffix.
func (u Unit) Format(mm float64) string {
	if u == UnitInch {
		return fmt.Sprintf("%.3gin", u.FromMillimetres(mm))
	}
	return fmt.Sprintf("%.4gmm", mm)
}
