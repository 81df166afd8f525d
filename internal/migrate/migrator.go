package migrate

import (
	"context"
	"fmt"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/internal/progress"
)

// Options controls a run.
type Options struct {
	// Force skips the equivalence check and migrates every gist, which
	// can create duplicate snippets.
	Force bool

	// DryRun does everything except creating snippets.
	DryRun bool
}

// Migrator drives a migration from a source to a destination, one gist
// at a time.
type Migrator struct {
	source   SourceRepository
	dest     DestinationRepository
	progress *progress.Reporter
	opts     Options
}

// New creates a new Migrator
func New(source SourceRepository, dest DestinationRepository, reporter *progress.Reporter, opts Options) *Migrator {
	return &Migrator{
		source:   source,
		dest:     dest,
		progress: reporter,
		opts:     opts,
	}
}

// Run migrates every gist that has no matching snippet yet, oldest first.
// Listing or fetch problems with a single gist are reported and skipped;
// a failed snippet creation stops the run and is returned.
func (m *Migrator) Run(ctx context.Context) error {
	items := ListSourceItems(ctx, m.source)
	m.progress.Fetched(len(items), "gists")

	existing, err := m.dest.ListAllDestinationItems(ctx)
	if err != nil {
		return fmt.Errorf("listing snippets: %w", err)
	}
	m.progress.Fetched(len(existing), "snippets")

	if m.opts.Force {
		logger.Warn("Force mode: every gist is migrated, existing snippets are ignored")
	}

	m.progress.Start(len(items))

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !m.opts.Force {
			if dest, ok := FindExisting(item, existing); ok {
				m.progress.Skipped(item, dest)
				continue
			}
		}

		m.progress.Migrating(item)

		payload, err := Prepare(ctx, m.source, item)
		if err != nil {
			logger.Error("Failed to migrate gist %s: %v", item.ID, err)
			m.progress.Failed(item, err)
			continue
		}

		if m.opts.DryRun {
			logger.Info("DRY RUN: Would create snippet %q (%s, %d files)", payload.Title, payload.Visibility, len(payload.Files))
			m.progress.Planned(item)
			continue
		}

		created, err := m.dest.CreateDestinationItem(ctx, payload)
		if err != nil {
			m.progress.Failed(item, err)
			return fmt.Errorf("migrating gist %s: %w", item.ID, err)
		}
		m.progress.Migrated(item, created)
	}

	m.progress.Finish()
	return nil
}
