// Copyright 2025 The Ember Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package limits

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a checked arithmetic operation would
// overflow the int range.
var ErrOverflow = errors.New("integer overflow")

// Add returns a+b, or ErrOverflow if the sum does not fit in an int.
func Add(a, b int) (int, error) {
	if b > 0 && a > math.MaxInt-b {
		return 0, ErrOverflow
	}
	if b < 0 && a < math.MinInt-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b, or ErrOverflow if the difference does not fit in an int.
func Sub(a, b int) (int, error) {
	if b < 0 && a > math.MaxInt+b {
		return 0, ErrOverflow
	}
	if b > 0 && a < math.MinInt+b {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul returns a*b, or ErrOverflow if the product does not fit in an int.
func Mul(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a {
		return 0, ErrOverflow
	}
	return p, nil
}
