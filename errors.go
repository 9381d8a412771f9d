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
	"github.com/lac-dcc/wyvern/internal/lazify"
)

// NotLazifiableError reports a candidate whose selected argument is not
// produced by an instruction of the caller.
type NotLazifiableError = lazify.NotLazifiableError

// NotOutlineableError reports a candidate whose slice failed a validator
// check; Reason names the check.
type NotOutlineableError = lazify.NotOutlineableError
