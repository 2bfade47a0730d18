// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"regexp"
	"strings"
)

var (
	repeatedSpaces   = regexp.MustCompile(` {2,}`)
	spaceBeforePunct = regexp.MustCompile(` +([.,:;!?])`)
)

// JoinTokens joins the non-empty tokens with single spaces and removes the
// space in front of punctuation.
func JoinTokens(tokens []string) string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			kept = append(kept, t)
		}
	}
	body := strings.Join(kept, " ")
	body = repeatedSpaces.ReplaceAllString(body, " ")
	return spaceBeforePunct.ReplaceAllString(body, "$1")
}
