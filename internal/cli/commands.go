package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/satfinder/internal/app"
	"github.com/okian/satfinder/internal/domain/params"
)

// queryFlags holds the raw flag text. Only flags the user set become query
// parameters so defaults and validation stay with the service.
type queryFlags struct {
	latitude  string
	longitude string
	days      string
	timeOfDay string
	sats      string
	pretty    bool
	v11       bool
}

func (f *queryFlags) path(base string) string {
	if f.v11 {
		return "/v1.1" + base
	}
	return base
}

func (f *queryFlags) query(cmd *cobra.Command) map[string]string {
	q := map[string]string{}
	set := func(flag, key, val string) {
		if cmd.Flags().Changed(flag) {
			q[key] = val
		}
	}
	set("latitude", params.ParamLatitude, f.latitude)
	set("longitude", params.ParamLongitude, f.longitude)
	set("days", params.ParamNumDays, f.days)
	set("time-of-day", params.ParamTimeOfDay, f.timeOfDay)
	set("sats", params.ParamIncludeSatIDs, f.sats)
	if f.pretty {
		q[params.ParamPrettyPrint] = ""
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

func newTimingsCmd(g *globals) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "timings",
		Short: "List upcoming visibility windows for an observer",
		Example: `  satfinder-cli timings --latitude 52.52 --longitude 13.40
  satfinder-cli timings --latitude -33.9 --longitude 151.2 --days 10 --time-of-day morning`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd, service.Request{
				Path:  f.path("/findstarlink"),
				Query: f.query(cmd),
			})
		},
	}
	cmd.Flags().StringVar(&f.latitude, "latitude", "", "observer latitude in degrees [-90, 90]")
	cmd.Flags().StringVar(&f.longitude, "longitude", "", "observer longitude in degrees [-180, 180]")
	cmd.Flags().StringVar(&f.days, "days", "", fmt.Sprintf("days to search, clamped to [%d, %d] (default %d)",
		params.MinDayCount, params.MaxDayCount, params.DefaultDayCount))
	cmd.Flags().StringVar(&f.timeOfDay, "time-of-day", "", "all, morning or evening (default all)")
	cmd.Flags().StringVar(&f.sats, "sats", "", "comma separated satellite ids (default: all active satellites)")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&f.v11, "v11", false, "use API version 1.1 (adds window peaks)")
	return cmd
}

func newPathCmd(g *globals) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:     "path",
		Short:   "Print the ground track of satellites",
		Example: `  satfinder-cli path --sats starlink-1 --pretty`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd, service.Request{
				Path:  f.path("/findstarlinkpath"),
				Query: f.query(cmd),
			})
		},
	}
	cmd.Flags().StringVar(&f.sats, "sats", "", "comma separated satellite ids (default: all active satellites)")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&f.v11, "v11", false, "use API version 1.1")
	return cmd
}

func newRefreshCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download the TLE dataset bypassing every cache and summarise it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := g.newService(cmd)
			if err != nil {
				return err
			}
			ds, err := svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "source:     %s\n", ds.Source)
			_, _ = fmt.Fprintf(out, "fetched:    %s\n", ds.FetchedAt.UTC().Format(time.RFC3339))
			_, _ = fmt.Fprintf(out, "satellites: %d\n", len(ds.Satellites))
			_, _ = fmt.Fprintf(out, "active:     %d\n", len(ds.Active()))
			_, _ = fmt.Fprintf(out, "focus:      %s\n", ds.FocusID())
			return nil
		},
	}
}
