// Package gitclone materializes gist files by cloning the gist's git
// repository into the run workspace.
package gitclone

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/internal/workspace"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Fetcher clones each locator at most once per run and serves file
// contents from the clone.
type Fetcher struct {
	ws     *workspace.Workspace
	git    string
	run    Runner
	clones map[string]string
}

// New creates a Fetcher cloning into ws with the given git binary.
func New(ws *workspace.Workspace, gitBinary string, run Runner) *Fetcher {
	if gitBinary == "" {
		gitBinary = "git"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Fetcher{
		ws:     ws,
		git:    gitBinary,
		run:    run,
		clones: make(map[string]string),
	}
}

// FetchRawFile returns the text of filename from the repository at locator.
func (f *Fetcher) FetchRawFile(ctx context.Context, locator, filename string) (string, error) {
	dir, err := f.clone(ctx, locator)
	if err != nil {
		return "", err
	}

	data, err := f.ws.ReadFile(dir, filename)
	if err != nil {
		return "", fmt.Errorf("reading %s from %s: %w", filename, locator, err)
	}
	return string(data), nil
}

func (f *Fetcher) clone(ctx context.Context, locator string) (string, error) {
	if dir, ok := f.clones[locator]; ok {
		return dir, nil
	}
	if locator == "" {
		return "", fmt.Errorf("empty clone locator")
	}

	dir := cloneDirName(locator)
	logger.Debug("Cloning %s into %s", locator, f.ws.Path(dir))

	out, err := f.run(ctx, f.git, "clone", "--quiet", "--", locator, f.ws.Path(dir))
	if err != nil {
		return "", fmt.Errorf("cloning %s: %w: %s", locator, err, strings.TrimSpace(string(out)))
	}

	f.clones[locator] = dir
	return dir, nil
}

func cloneDirName(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return hex.EncodeToString(sum[:8])
}
