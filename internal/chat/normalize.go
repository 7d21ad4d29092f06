// Package chat implements the ShopBot dialogue core: utterance
// normalization, product resolution, attribute extraction, and the
// per-message orchestration that ties them to the reasoning provider.
package chat

import (
	"strings"
)

// punctuationReplacer strips exactly the four characters the dialogue
// logic is sensitive to. This is deliberately not full punctuation
// stripping, and it never lowercases: the raw text still goes to the
// provider verbatim, the normalized copy feeds farewell detection and
// token validation.
var punctuationReplacer = strings.NewReplacer("?", "", "!", "", ".", "", ",", "")

// Normalize returns text with '?', '!', '.' and ',' removed. Idempotent.
func Normalize(text string) string {
	return punctuationReplacer.Replace(text)
}
