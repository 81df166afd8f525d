package models

import "time"

// SourceFile is the metadata of a single file inside a gist.
type SourceFile struct {
	Filename string `json:"filename"`
	Language string `json:"language,omitempty"`
	RawURL   string `json:"raw_url,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// SourceItem is a gist as listed by the source platform.
// Files keeps the order in which the platform enumerated them.
type SourceItem struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Public      bool         `json:"public"`
	Description string       `json:"description"`
	Files       []SourceFile `json:"files"`
	CloneURL    string       `json:"clone_url"`
	HTMLURL     string       `json:"html_url"`
}

// Filenames returns the file names in enumeration order.
func (s SourceItem) Filenames() []string {
	names := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		names = append(names, f.Filename)
	}
	return names
}

// SourcePage is one page of a gist listing.
// Status carries the HTTP status of the page response; More reports
// whether the platform advertised a following page.
type SourcePage struct {
	Status int
	Items  []SourceItem
	More   bool
}

// OK reports whether the page response was in the success range.
func (p SourcePage) OK() bool {
	return p.Status >= 200 && p.Status < 300
}
