// Package lessonplan decides which file in a Drive folder is the folder's
// lesson plan and aggregates the chosen links into an ordered mapping.
package lessonplan

import "strings"

// Drive MIME types the selector distinguishes.
const (
	MimeGoogleDoc   = "application/vnd.google-apps.document"
	MimeWordDoc     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeWordLegacy  = "application/msword"
	MimePlainText   = "text/plain"
	MimePDF         = "application/pdf"
	MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"
)

// File is one immediate child of a Drive folder as returned by the listing
// service. Listing order is preserved but carries no meaning.
type File struct {
	ID       string
	Name     string
	MimeType string
	ViewLink string
}

// Selection names the file chosen as a folder's lesson plan, the tier of the
// naming policy that matched it, and a short reason for the run journal.
type Selection struct {
	File   File
	Tier   int
	Reason string
}

type tier struct {
	rank   int
	reason string
	match  func(File) bool
}

// Tiers are evaluated in order, each as a full pass over the listing. Tier 1
// is the authoritative naming convention and wins regardless of file type.
// Tiers 2-4 require a document-like type so a spreadsheet or image with a
// suggestive name is never chosen.
var tiers = []tier{
	{1, "finalized lesson plan naming convention", func(f File) bool {
		name := strings.ToLower(f.Name)
		return strings.Contains(name, "finalized") && strings.Contains(name, "lessonplan")
	}},
	{2, "lesson plan name on a document type", func(f File) bool {
		return nameHasAny(f.Name, "lessonplan", "lesson plan", "lesson_plan") &&
			mimeIsAny(f.MimeType, MimeGoogleDoc, MimeWordDoc, MimeWordLegacy, MimePlainText, MimePDF)
	}},
	{3, "lesson in the name on a document type", func(f File) bool {
		return nameHasAny(f.Name, "lesson") &&
			mimeIsAny(f.MimeType, MimeGoogleDoc, MimeWordDoc, MimeWordLegacy, MimePDF)
	}},
	{4, "first document-typed file", func(f File) bool {
		return mimeIsAny(f.MimeType, MimeGoogleDoc, MimeWordDoc, MimeWordLegacy)
	}},
}

// Select returns the first file matched by the highest-priority tier. Within
// a tier the first file in listing order wins; there is no secondary ranking.
// The second return is false when no tier matches anything, including for an
// empty listing.
func Select(files []File) (Selection, bool) {
	for _, t := range tiers {
		for _, f := range files {
			if t.match(f) {
				return Selection{File: f, Tier: t.rank, Reason: t.reason}, true
			}
		}
	}
	return Selection{}, false
}

func nameHasAny(name string, needles ...string) bool {
	lowered := strings.ToLower(name)
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}

func mimeIsAny(mime string, accepted ...string) bool {
	for _, candidate := range accepted {
		if mime == candidate {
			return true
		}
	}
	return false
}
