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

package opts

import (
	"os"
	"strconv"

	"github.com/bytedance/gopkg/lang/fastrand"
)

// Memoization is the process-wide default for the call-by-need /
// call-by-name choice. It can be configured with the `WYVERN_MEMOIZATION`
// environment variable.
var Memoization = parseOrDefault("WYVERN_MEMOIZATION", true)

func parseOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("wyvern: invalid value for " + key)
	} else {
		return val
	}
}

type Options struct {
	Memoization bool
	Nonce       func() uint64
}

// defaultNonce mirrors the symbol suffix range used by generated thunk
// names: a uniform draw from [1, 1e9].
func defaultNonce() uint64 {
	return uint64(fastrand.Uint32n(1000000000)) + 1
}

func GetDefaultOptions() Options {
	return Options{
		Memoization: Memoization,
		Nonce:       defaultNonce,
	}
}
