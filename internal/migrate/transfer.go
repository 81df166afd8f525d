package migrate

import (
	"context"
	"fmt"

	"github.com/shapesecurity/gist-migrator/pkg/common"
	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// MaxFiles is the most files a snippet may hold.
const MaxFiles = 10

// ValidateFileCount rejects gists the destination cannot store.
func ValidateFileCount(item models.SourceItem) error {
	if n := len(item.Files); n > MaxFiles {
		return common.NewItemError(item.ID, common.StageValidate,
			fmt.Errorf("gist has %d files, a snippet holds at most %d: %w", n, MaxFiles, common.ErrTooManyFiles))
	}
	return nil
}

// FetchContents reads every file of item, in file order.
func FetchContents(ctx context.Context, src SourceRepository, item models.SourceItem) ([]models.DestinationFile, error) {
	files := make([]models.DestinationFile, 0, len(item.Files))
	for _, f := range item.Files {
		content, err := src.FetchRawFile(ctx, item.CloneURL, f.Filename)
		if err != nil {
			return nil, common.NewItemError(item.ID, common.StageFetch, err)
		}
		files = append(files, models.DestinationFile{Path: f.Filename, Content: content})
	}
	return files, nil
}

// BuildPayload maps a gist and its materialized files to the snippet to create.
func BuildPayload(item models.SourceItem, files []models.DestinationFile) models.DestinationItem {
	return models.DestinationItem{
		Title:       Title(item),
		Description: Description(item),
		Visibility:  VisibilityFor(item),
		Files:       files,
	}
}

// Prepare validates item and builds its creation payload. Errors are
// *common.ItemError and only concern this item.
func Prepare(ctx context.Context, src SourceRepository, item models.SourceItem) (models.DestinationItem, error) {
	if err := ValidateFileCount(item); err != nil {
		return models.DestinationItem{}, err
	}

	files, err := FetchContents(ctx, src, item)
	if err != nil {
		return models.DestinationItem{}, err
	}

	return BuildPayload(item, files), nil
}
