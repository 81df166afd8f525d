// Package migrate copies gists to snippets without creating a second
// snippet for a gist that was already migrated.
package migrate

import (
	"context"

	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// SourceRepository is the gist side of a migration.
type SourceRepository interface {
	// ListUserItems returns one page of the user's gists. A page with a
	// non-2xx Status ends the listing.
	ListUserItems(ctx context.Context, page int) (models.SourcePage, error)

	// FetchRawFile returns the text of filename in the gist reachable at locator.
	FetchRawFile(ctx context.Context, locator, filename string) (string, error)
}

// DestinationRepository is the snippet side of a migration.
type DestinationRepository interface {
	ListAllDestinationItems(ctx context.Context) ([]models.DestinationItem, error)
	CreateDestinationItem(ctx context.Context, item models.DestinationItem) (models.DestinationItem, error)
}
