// Package cli exposes the satellite queries as cobra commands that run the
// service in-process.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/satfinder/internal/app"
	"github.com/okian/satfinder/internal/config"
	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	sourceURL string
	logLevel  string
	extra     []service.Option
}

// NewRootCmd builds the command tree. Extra options are appended after the
// configuration-derived ones, so they win.
func NewRootCmd(extra ...service.Option) *cobra.Command {
	g := &globals{extra: extra}

	root := &cobra.Command{
		Use:   "satfinder-cli",
		Short: "Satellite visibility and ground-track queries",
		Long: `satfinder-cli answers the same queries as the satfinder HTTP service
without a server: the TLE dataset is downloaded, the query is validated and
the JSON body is printed to stdout.

Configuration is read from SATFINDER_CONFIG and SATFINDER_* variables;
flags override it.

Examples:
  # Visible passes over Berlin for the next three days
  satfinder-cli timings --latitude 52.52 --longitude 13.40 --days 3

  # Evening passes only, with peaks (API 1.1)
  satfinder-cli timings --latitude 40.7 --longitude -74 --time-of-day evening --v11

  # Ground track of two satellites, indented
  satfinder-cli path --sats starlink-1,starlink-2 --pretty`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.sourceURL, "source", "", "TLE document URL (default from config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level written to stderr: debug, info, warn, error")
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(newTimingsCmd(g))
	root.AddCommand(newPathCmd(g))
	root.AddCommand(newRefreshCmd(g))
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// newService loads configuration, initialises stderr logging and builds the
// service.
func (g *globals) newService(cmd *cobra.Command) (*service.Service, logger.Logger, error) {
	const op = "cli.newService"
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, errkind.WrapKind(op, ErrConfig, err)
	}
	if g.sourceURL != "" {
		cfg.TLESourceURL = g.sourceURL
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return nil, nil, errkind.WrapKind(op, ErrConfig, err)
	}
	if err := logger.SetLevelString(g.logLevel); err != nil {
		return nil, nil, errkind.WrapKind(op, ErrConfig, err)
	}
	log := logger.Named("cli")

	opts := append(service.OptionsFromConfig(cfg), service.WithLogger(log))
	opts = append(opts, g.extra...)
	return service.New(opts...), log, nil
}

// run executes one query and prints the envelope body. Non-200 envelopes are
// printed to stderr and reported as ErrRejected.
func (g *globals) run(cmd *cobra.Command, req service.Request) error {
	const op = "cli.run"

	svc, log, err := g.newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log.Debug(ctx, "query", logger.String("path", req.Path), logger.Any("query", req.Query))

	resp, err := svc.Handle(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), resp.Body)
		return errkind.With(errkind.NewKind(op, ErrRejected), "status", strconv.Itoa(resp.StatusCode))
	}
	return writeBody(cmd.OutOrStdout(), resp.Body)
}

func writeBody(w io.Writer, body string) error {
	_, err := io.WriteString(w, body+"\n")
	return err
}
