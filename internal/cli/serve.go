package cli

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/observability"
	"github.com/matzehuels/clausetree/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Run the HTTP conversion API.

Endpoints:
  POST /api/v1/convert   convert a description (query: format, name, font,
                         transparent, scale, input)
  GET  /healthz          liveness probe
  GET  /version          build information
  GET  /metrics          Prometheus metrics (disable with --no-metrics)

The server shares the configured artifact cache with the CLI and shuts down
gracefully on interrupt.`,
		Example: `  clausetree serve --addr :8080
  curl --data-binary @sentence.json 'localhost:8080/api/v1/convert?format=svg'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			cfg := server.Config{
				Addr:          addr,
				MaxBodyBytes:  c.Config.Server.MaxBodyBytes,
				RenderTimeout: c.Config.RenderTimeout,
			}
			if !noMetrics {
				cfg.Metrics = installMetrics()
			}
			srv := server.New(runner, c.Logger.WithPrefix("http"), cfg)
			printInfo("Serving on %s", StyleLink.Render("http://"+srv.Addr()))
			printDetail("Cache: %s", c.cacheLocation())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config or "+server.DefaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	return cmd
}

// installMetrics registers Prometheus hooks on a fresh registry, chained in
// front of any debug hooks, and returns the handler that exposes them.
func installMetrics() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.NewMetrics(reg).Install()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
