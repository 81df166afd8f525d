package models

// Visibility is the visibility level of a snippet.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
	VisibilityPublic   Visibility = "public"
)

// DestinationFile is one file of a snippet. Content is only populated
// on items built for creation; listed snippets carry paths only.
type DestinationFile struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// DestinationItem is a snippet, either listed from the destination
// platform or built as a creation payload.
type DestinationItem struct {
	ID          int               `json:"id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Visibility  Visibility        `json:"visibility"`
	Files       []DestinationFile `json:"files"`
	WebURL      string            `json:"web_url,omitempty"`
}

// Paths returns the file paths of the snippet in order.
func (d DestinationItem) Paths() []string {
	paths := make([]string, 0, len(d.Files))
	for _, f := range d.Files {
		paths = append(paths, f.Path)
	}
	return paths
}
