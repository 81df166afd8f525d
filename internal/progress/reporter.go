package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// Status is the outcome of one source item.
type Status string

const (
	StatusMigrated Status = "migrated"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
	StatusPlanned  Status = "dry-run"
)

// Outcome records what happened to one gist.
type Outcome struct {
	SourceID       string    `json:"source_id"`
	SourceURL      string    `json:"source_url"`
	Status         Status    `json:"status"`
	DestinationURL string    `json:"destination_url,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type styles struct {
	success lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
}

// Reporter prints per-item progress lines and keeps the outcomes.
type Reporter struct {
	out       io.Writer
	styles    styles
	total     int
	migrated  int
	skipped   int
	failed    int
	planned   int
	startTime time.Time
	outcomes  []Outcome
	now       func() time.Time
}

// New creates a reporter writing to out. Colors are only emitted when out
// is a terminal.
func New(out io.Writer) *Reporter {
	re := lipgloss.NewRenderer(out)
	return &Reporter{
		out: out,
		styles: styles{
			success: re.NewStyle().Foreground(lipgloss.Color("42")),
			muted:   re.NewStyle().Faint(true),
			accent:  re.NewStyle().Foreground(lipgloss.Color("12")),
		},
		now: time.Now,
	}
}

func (r *Reporter) printf(style lipgloss.Style, format string, v ...interface{}) {
	fmt.Fprintln(r.out, style.Render(fmt.Sprintf(format, v...)))
}

// Fetched reports how many items a listing produced.
func (r *Reporter) Fetched(n int, noun string) {
	r.printf(r.styles.accent, "Fetched %d %s.", n, noun)
}

// Start begins the per-item phase for total source items.
func (r *Reporter) Start(total int) {
	r.total = total
	r.migrated, r.skipped, r.failed, r.planned = 0, 0, 0, 0
	r.outcomes = nil
	r.startTime = r.now()
}

// Migrating announces that item is about to be transferred.
func (r *Reporter) Migrating(item models.SourceItem) {
	fmt.Fprintf(r.out, "Migrating gist %s (%s)...\n", item.ID, item.HTMLURL)
}

// Skipped marks item as already present at dest.
func (r *Reporter) Skipped(item models.SourceItem, dest models.DestinationItem) {
	r.skipped++
	r.printf(r.styles.muted, "Skipping gist %s. Already migrated to %s.", item.ID, dest.WebURL)
	r.record(item, StatusSkipped, dest.WebURL, nil)
}

// Migrated marks item as created at dest.
func (r *Reporter) Migrated(item models.SourceItem, dest models.DestinationItem) {
	r.migrated++
	r.printf(r.styles.success, "Migrated to %s", dest.WebURL)
	r.record(item, StatusMigrated, dest.WebURL, nil)
}

// Planned marks item as one a real run would create.
func (r *Reporter) Planned(item models.SourceItem) {
	r.planned++
	r.printf(r.styles.muted, "Would migrate gist %s", item.ID)
	r.record(item, StatusPlanned, "", nil)
}

// Failed marks item as not migrated because of err. Nothing is printed;
// errors are reported on the log stream by the caller.
func (r *Reporter) Failed(item models.SourceItem, err error) {
	r.failed++
	r.record(item, StatusFailed, "", err)
}

func (r *Reporter) record(item models.SourceItem, status Status, destURL string, err error) {
	o := Outcome{
		SourceID:       item.ID,
		SourceURL:      item.HTMLURL,
		Status:         status,
		DestinationURL: destURL,
		Timestamp:      r.now(),
	}
	if err != nil {
		o.Error = err.Error()
	}
	r.outcomes = append(r.outcomes, o)
}

// Finish prints the summary and the final line.
func (r *Reporter) Finish() {
	duration := r.now().Sub(r.startTime).Round(time.Second)

	summary := fmt.Sprintf("%d/%d gists migrated, %d skipped, %d failed", r.migrated, r.total, r.skipped, r.failed)
	if r.planned > 0 {
		summary += fmt.Sprintf(", %d would be migrated", r.planned)
	}
	r.printf(r.styles.accent, "%s in %s.", summary, duration)
	fmt.Fprintln(r.out, "Done.")
}

// Counts returns migrated, skipped and failed totals.
func (r *Reporter) Counts() (migrated, skipped, failed int) {
	return r.migrated, r.skipped, r.failed
}

// Outcomes returns the recorded outcomes in processing order.
func (r *Reporter) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}
