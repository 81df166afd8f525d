package migrate

import (
	"context"
	"iter"
	"slices"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// SourceItems lazily drains the gist listing page by page. A failed page
// is logged and ends the sequence; items already yielded stand.
func SourceItems(ctx context.Context, src SourceRepository) iter.Seq[models.SourceItem] {
	return func(yield func(models.SourceItem) bool) {
		for page := 1; ; page++ {
			p, err := src.ListUserItems(ctx, page)
			if err != nil || !p.OK() {
				logger.Error("Failed to list gists page %d (status %d): %v", page, p.Status, err)
				return
			}

			for _, item := range p.Items {
				if !yield(item) {
					return
				}
			}

			if len(p.Items) == 0 || !p.More {
				return
			}
		}
	}
}

// ListSourceItems collects every gist and orders them by creation time,
// oldest first. Items created at the same instant keep listing order.
func ListSourceItems(ctx context.Context, src SourceRepository) []models.SourceItem {
	items := slices.Collect(SourceItems(ctx, src))
	slices.SortStableFunc(items, func(a, b models.SourceItem) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return items
}
