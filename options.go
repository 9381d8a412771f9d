/*
 * Copyright 2023 Wyvern Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wyvern

import (
	"github.com/lac-dcc/wyvern/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithMemoization selects between call-by-need (true, the default) and
// call-by-name (false) thunks.
//
// Memoized thunks cache their result inside the thunk record, so forcing
// the same record twice evaluates the slice once. Non-memoized thunks
// re-evaluate on every force; the slice is pure, so only evaluation count
// differs.
//
// The default can also be configured with the `WYVERN_MEMOIZATION`
// environment variable.
func WithMemoization(enabled bool) Option {
	return func(o *opts.Options) { o.Memoization = enabled }
}

// WithNonceSource overrides the random source used to suffix generated
// thunk symbols. The nonce only guards against symbol collisions and never
// affects program semantics; tests pin it to a constant for reproducible
// output.
func WithNonceSource(src func() uint64) Option {
	if src == nil {
		panic("wyvern: nil nonce source")
	}
	return func(o *opts.Options) { o.Nonce = src }
}
