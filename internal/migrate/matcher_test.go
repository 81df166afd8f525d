package migrate

import (
	"testing"

	"github.com/shapesecurity/gist-migrator/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "a.txt, b.py", Title(gistWithFiles("g", true, "", "a.txt", "b.py")))
	assert.Equal(t, "b.py, a.txt", Title(gistWithFiles("g", true, "", "b.py", "a.txt")), "mapping order is kept")
	assert.Equal(t, "my notes", Title(gistWithFiles("g", true, "my notes", "a.txt")))
	assert.Equal(t, "", Title(gistWithFiles("g", true, "")))
}

func TestDescription(t *testing.T) {
	item := gistWithFiles("abc", false, "whatever", "a")
	assert.Equal(t, "Migrated from https://gist.github.com/abc", Description(item))
}

func TestVisibilityFor(t *testing.T) {
	assert.Equal(t, models.VisibilityInternal, VisibilityFor(gistWithFiles("g", true, "")))
	assert.Equal(t, models.VisibilityPrivate, VisibilityFor(gistWithFiles("g", false, "")))
}

func migratedView(item models.SourceItem) models.DestinationItem {
	files := make([]models.DestinationFile, 0, len(item.Files))
	for _, f := range item.Files {
		files = append(files, models.DestinationFile{Path: f.Filename, Content: "x"})
	}
	return BuildPayload(item, files)
}

func TestIsMatch_ReflexiveOverPayload(t *testing.T) {
	for _, item := range []models.SourceItem{
		gistWithFiles("a", true, "", "x.md"),
		gistWithFiles("b", false, "described", "1.go", "2.go", "3.go"),
		gistWithFiles("c", true, "", "z", "A", "a"),
	} {
		assert.True(t, IsMatch(item, migratedView(item)), item.ID)
	}
}

func TestIsMatch_Mismatches(t *testing.T) {
	item := gistWithFiles("g", true, "", "a.txt", "b.py")
	base := migratedView(item)

	tests := []struct {
		name   string
		mutate func(d *models.DestinationItem)
	}{
		{"visibility", func(d *models.DestinationItem) { d.Visibility = models.VisibilityPrivate }},
		{"public is never produced", func(d *models.DestinationItem) { d.Visibility = models.VisibilityPublic }},
		{"title", func(d *models.DestinationItem) { d.Title = "other" }},
		{"description", func(d *models.DestinationItem) { d.Description = "Migrated from elsewhere" }},
		{"missing file", func(d *models.DestinationItem) { d.Files = d.Files[:1] }},
		{"extra file", func(d *models.DestinationItem) {
			d.Files = append(d.Files, models.DestinationFile{Path: "c.rb"})
		}},
		{"renamed file", func(d *models.DestinationItem) { d.Files[1].Path = "b.PY" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			d.Files = append([]models.DestinationFile(nil), base.Files...)
			tt.mutate(&d)
			assert.False(t, IsMatch(item, d))
		})
	}
}

func TestIsMatch_IgnoresFileOrderAndContent(t *testing.T) {
	item := gistWithFiles("g", false, "desc", "a.txt", "b.py")
	dest := models.DestinationItem{
		Title:       "desc",
		Description: Description(item),
		Visibility:  models.VisibilityPrivate,
		Files:       []models.DestinationFile{{Path: "b.py", Content: "changed"}, {Path: "a.txt"}},
	}
	assert.True(t, IsMatch(item, dest))
}

func TestFindExisting(t *testing.T) {
	item := gistWithFiles("g", true, "", "x.md")
	twin := gistWithFiles("g", true, "", "x.md")
	match := migratedView(item)
	match.WebURL = "https://gitlab.com/-/snippets/1"
	second := migratedView(twin)
	second.WebURL = "https://gitlab.com/-/snippets/2"
	unrelated := migratedView(gistWithFiles("other", true, "", "x.md"))

	found, ok := FindExisting(item, []models.DestinationItem{unrelated, match, second})
	assert.True(t, ok)
	assert.Equal(t, "https://gitlab.com/-/snippets/1", found.WebURL, "first match in list order wins")

	_, ok = FindExisting(item, []models.DestinationItem{unrelated})
	assert.False(t, ok)

	_, ok = FindExisting(item, nil)
	assert.False(t, ok)
}
