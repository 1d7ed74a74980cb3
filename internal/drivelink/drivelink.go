// Package drivelink extracts opaque Drive identifiers from sharing URLs.
package drivelink

import "regexp"

// Patterns are tried in order. The folder shape is matched before the
// generic /d/ shape: a folder URL can structurally satisfy both.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`),
}

// Resolve pulls the identifier out of a Drive sharing URL. The second return
// is false when the URL matches none of the known shapes; that is a normal
// negative result, not an error.
func Resolve(raw string) (string, bool) {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			return match[1], true
		}
	}
	return "", false
}
