package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/internal/api"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve placements over HTTP",
		Long: `Serve placements over HTTP.

Routes:
  POST /v1/placements          compute a placement from a scenario body
  POST /v1/placements/explain  same, including the selection trace
  POST /v1/placements/batch    compute many scenarios at once
  GET  /healthz                liveness probe
  GET  /version                build information

The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			runner := c.newRunner(ctx, cfg, noCache)
			defer runner.Close()

			printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr(cfg.Server.Addr)))
			printDetail("cache: %s", cacheLabel(cfg.Cache.Backend, noCache))
			return api.New(runner, c.Logger).ListenAndServe(ctx, cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// displayAddr turns a bare ":port" into a browsable host.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func cacheLabel(backend string, disabled bool) string {
	if disabled {
		return "disabled"
	}
	return backend
}
