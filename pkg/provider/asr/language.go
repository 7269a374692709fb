package asr

import "strings"

// BaseLanguage returns the lower-case primary subtag of a BCP-47 language
// tag: "en-US" becomes "en", "pt_BR" becomes "pt". Recognisers such as
// whisper only understand the primary language.
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
