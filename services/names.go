// services/names.go
package services

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameFolder = cases.Fold()

// FoldMemberName canonicalizes a free-text participant name for ledger and
// account lookups: transliterate to ASCII, case-fold, collapse inner
// whitespace. "Älice  the Brave" and "alice the brave" share a key.
func FoldMemberName(name string) string {
	folded := nameFolder.String(unidecode.Unidecode(strings.TrimSpace(name)))
	return strings.Join(strings.Fields(folded), " ")
}

var nameTitler = cases.Title(language.Und, cases.NoLower)

// DisplayMemberName trims a raw participant entry for storage without
// altering the player's chosen casing.
func DisplayMemberName(name string) string {
	return strings.TrimSpace(name)
}

// TitleMemberName is used for brand-new names typed in all lower case on
// guild rosters; existing capitalization is left alone.
func TitleMemberName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == strings.ToLower(trimmed) {
		return nameTitler.String(trimmed)
	}
	return trimmed
}
