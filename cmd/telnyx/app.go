package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/config"
	"github.com/telnyx/telnyx-cli/output"
	"github.com/telnyx/telnyx-cli/storage"
)

// app holds what every command needs for one invocation.
type app struct {
	settings *config.Settings
	store    *config.Store
	client   *api.Client
	format   output.Format
	logger   *slog.Logger
	ui       *ui

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// newApp wires the dependencies from the settings stored in ctx.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	s, err := config.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	format, err := output.Resolve(s.Output, s.JSON)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), s)
	store := config.NewStore(s.ConfigPath)

	return &app{
		settings: s,
		store:    store,
		client: api.New(store,
			api.WithEndpoints(s.Endpoints),
			api.WithTrace(logger),
		),
		format: format,
		logger: logger,
		ui:     newUI(cmd.ErrOrStderr()),
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// opts returns the per-request options derived from global flags.
func (a *app) opts() api.Options {
	return api.Options{Profile: a.settings.Profile, Verbose: a.settings.Verbose}
}

// profileName is the profile a command acts on: --profile, else the stored default.
func (a *app) profileName() (string, error) {
	if a.settings.Profile != "" {
		return a.settings.Profile, nil
	}
	name, err := a.store.DefaultProfile()
	if err != nil {
		return "", err
	}
	if name == "" {
		return config.DefaultProfileName, nil
	}
	return name, nil
}

func (a *app) render(records []output.Record, columns []output.Column, raw any) error {
	return output.Render(a.out, records, columns, output.Options{Format: a.format, Raw: raw})
}

func (a *app) renderDetail(record output.Record, columns []output.Column, raw any) error {
	return output.RenderDetail(a.out, record, columns, output.Options{Format: a.format, Raw: raw})
}

// tableOnly reports whether human-oriented extras such as footers should be printed.
func (a *app) tableOnly() bool {
	return a.format == output.Table
}

// linef writes a formatted line to stdout.
func (a *app) linef(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) storage(ctx context.Context) (*storage.Client, error) {
	creds, err := a.client.StorageCredentials(a.settings.Profile)
	if err != nil {
		return nil, err
	}
	return storage.New(ctx, creds)
}
