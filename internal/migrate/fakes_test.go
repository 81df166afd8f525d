package migrate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockSource is a testify mock of SourceRepository.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListUserItems(ctx context.Context, page int) (models.SourcePage, error) {
	args := m.Called(ctx, page)
	return args.Get(0).(models.SourcePage), args.Error(1)
}

func (m *MockSource) FetchRawFile(ctx context.Context, locator, filename string) (string, error) {
	args := m.Called(ctx, locator, filename)
	return args.String(0), args.Error(1)
}

// fakeSource serves a fixed gist list in pages and file contents from memory.
type fakeSource struct {
	items    []models.SourceItem
	perPage  int
	contents map[string]string // locator + "/" + filename
	fetchErr map[string]error  // locator -> error
	fetches  int
}

func (f *fakeSource) ListUserItems(_ context.Context, page int) (models.SourcePage, error) {
	per := f.perPage
	if per == 0 {
		per = 100
	}
	start := (page - 1) * per
	if start >= len(f.items) {
		return models.SourcePage{Status: 200}, nil
	}
	end := min(start+per, len(f.items))
	return models.SourcePage{Status: 200, Items: f.items[start:end], More: end < len(f.items)}, nil
}

func (f *fakeSource) FetchRawFile(_ context.Context, locator, filename string) (string, error) {
	f.fetches++
	if err := f.fetchErr[locator]; err != nil {
		return "", err
	}
	content, ok := f.contents[locator+"/"+filename]
	if !ok {
		return "", fmt.Errorf("%s: no such file %s", locator, filename)
	}
	return content, nil
}

// fakeDestination stores created snippets so a second run sees them.
type fakeDestination struct {
	items     []models.DestinationItem
	created   []models.DestinationItem
	createErr error
	listErr   error
	nextID    int
}

func (f *fakeDestination) ListAllDestinationItems(context.Context) ([]models.DestinationItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.DestinationItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeDestination) CreateDestinationItem(_ context.Context, item models.DestinationItem) (models.DestinationItem, error) {
	if f.createErr != nil {
		return models.DestinationItem{}, f.createErr
	}
	f.nextID++
	item.ID = f.nextID
	item.WebURL = fmt.Sprintf("https://gitlab.example.com/-/snippets/%d", item.ID)

	stored := item
	stored.Files = make([]models.DestinationFile, len(item.Files))
	for i, file := range item.Files {
		stored.Files[i] = models.DestinationFile{Path: file.Path}
	}
	f.items = append(f.items, stored)
	f.created = append(f.created, item)
	return item, nil
}

var t0 = time.Date(2015, 6, 1, 10, 0, 0, 0, time.UTC)

func gistWithFiles(id string, public bool, description string, names ...string) models.SourceItem {
	item := models.SourceItem{
		ID:          id,
		CreatedAt:   t0,
		Public:      public,
		Description: description,
		CloneURL:    "https://gist.github.com/" + id + ".git",
		HTMLURL:     "https://gist.github.com/" + id,
	}
	for _, n := range names {
		item.Files = append(item.Files, models.SourceFile{Filename: n})
	}
	return item
}

func contentsFor(items ...models.SourceItem) map[string]string {
	contents := make(map[string]string)
	for _, item := range items {
		for _, f := range item.Files {
			contents[item.CloneURL+"/"+f.Filename] = "content of " + item.ID + "/" + f.Filename
		}
	}
	return contents
}

// captureLog sends log lines to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}
