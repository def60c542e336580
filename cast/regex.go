// Copyright 2025 Magnus Pierre
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

package cast

import "regexp"

var (
	// reInt matches decimal integer strings with an optional sign.
	reInt = regexp.MustCompile(`^[+-]?[0-9]+$`)

	// reFloat matches fractional or exponential number forms. Pure digit
	// strings are claimed by reInt first, so a reFloat-only match means the
	// value genuinely requires a floating-point representation.
	reFloat = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?$`)

	// reListLike matches values that open and close with bracket-like
	// characters: [a,b], {a,b}, (a,b), <a,b>, |a,b|.
	reListLike = regexp.MustCompile(`^[\(\[\|\{<].*[\)\]\|>}]$`)

	// reURL is a structural web-URL pattern: optional scheme, domain,
	// localhost or IPv4 host, optional port, optional path/query. Leading
	// whitespace is tolerated.
	reURL = regexp.MustCompile(`(?i)^\s*(http://www\.|https://www\.|http://|https://)?` +
		`(([A-Z0-9]([A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
		`localhost|` +
		`[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3})` +
		`(:[0-9]+)?` +
		`(/?|[/?]\S+)$`)
)
