package migrate

import (
	"strings"

	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// Title is the snippet title for a gist: its description, or the file
// names joined by ", " when the description is empty.
func Title(item models.SourceItem) string {
	if item.Description != "" {
		return item.Description
	}
	return strings.Join(item.Filenames(), ", ")
}

// Description is the provenance text stored on the snippet.
func Description(item models.SourceItem) string {
	return "Migrated from " + item.HTMLURL
}

// VisibilityFor maps public gists to internal snippets and secret gists
// to private ones.
func VisibilityFor(item models.SourceItem) models.Visibility {
	if item.Public {
		return models.VisibilityInternal
	}
	return models.VisibilityPrivate
}

// IsMatch reports whether dest is the migration result of item: same
// mapped visibility, title, provenance description and set of file
// names. File contents are not compared, so two gists with equal
// metadata and file names are indistinguishable.
func IsMatch(item models.SourceItem, dest models.DestinationItem) bool {
	if dest.Visibility != VisibilityFor(item) {
		return false
	}
	if dest.Title != Title(item) || dest.Description != Description(item) {
		return false
	}
	return sameNames(item.Filenames(), dest.Paths())
}

// FindExisting returns the first snippet in dests that matches item.
// When several match, which one is returned depends only on list order.
func FindExisting(item models.SourceItem, dests []models.DestinationItem) (models.DestinationItem, bool) {
	for _, d := range dests {
		if IsMatch(item, d) {
			return d, true
		}
	}
	return models.DestinationItem{}, false
}

// sameNames compares two name lists as sets, case-sensitively.
func sameNames(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for name := range setA {
		if _, ok := setB[name]; !ok {
			return false
		}
	}
	return true
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
