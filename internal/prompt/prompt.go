// Package prompt collects missing connection settings from the operator.
package prompt

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/shapesecurity/gist-migrator/internal/config"
	"github.com/shapesecurity/gist-migrator/pkg/common"
)

// Runner runs a form. Tests replace it to avoid a terminal.
type Runner func(form *huh.Form) error

// Prompter fills in missing credentials interactively.
type Prompter struct {
	interactive bool
	run         Runner
}

// New returns a Prompter that is interactive when stdin is a terminal.
func New() *Prompter {
	fd := os.Stdin.Fd()
	return &Prompter{
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		run:         func(form *huh.Form) error { return form.Run() },
	}
}

// NeedsPrompt reports whether cfg is missing anything only the operator
// can supply.
func NeedsPrompt(cfg *config.Config) bool {
	return len(cfg.MissingTokens()) > 0
}

// Complete asks for the base URLs and any missing tokens. It is a no-op
// when nothing is missing or no terminal is attached; validation then
// reports what is still absent.
func (p *Prompter) Complete(cfg *config.Config) error {
	if !NeedsPrompt(cfg) || !p.interactive {
		return nil
	}

	form := buildForm(cfg)
	if err := p.run(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return common.NewConfigError("prompt", "aborted by user")
		}
		return common.NewConfigError("prompt", err.Error())
	}

	cfg.Source.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Source.BaseURL), "/")
	cfg.Destination.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Destination.BaseURL), "/")
	cfg.Source.Token = strings.TrimSpace(cfg.Source.Token)
	cfg.Destination.Token = strings.TrimSpace(cfg.Destination.Token)
	return nil
}

func buildForm(cfg *config.Config) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("GitHub API URL").
			Value(&cfg.Source.BaseURL).
			Validate(config.ValidateBaseURL),
		huh.NewInput().
			Title("GitLab API URL").
			Value(&cfg.Destination.BaseURL).
			Validate(config.ValidateBaseURL),
	}

	if cfg.Source.Token == "" {
		fields = append(fields, huh.NewInput().
			Title("GitHub access token").
			Description("Needs the gist scope.").
			EchoMode(huh.EchoModePassword).
			Value(&cfg.Source.Token).
			Validate(requireValue))
	}
	if cfg.Destination.Token == "" {
		fields = append(fields, huh.NewInput().
			Title("GitLab access token").
			Description("Needs the api scope.").
			EchoMode(huh.EchoModePassword).
			Value(&cfg.Destination.Token).
			Validate(requireValue))
	}

	return huh.NewForm(huh.NewGroup(fields...).Title("Gist migration"))
}

func requireValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}
