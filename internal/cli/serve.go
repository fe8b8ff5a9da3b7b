package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/observability"
	"github.com/matzehuels/jrevolver/pkg/server"
)

const (
	// shutdownTimeout bounds how long in-flight requests may run after an
	// interrupt.
	shutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	includes  []string
	noMetrics bool
}

// serveCommand creates the serve command, which exposes resolution over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP resolve API",
		Long: `Start an HTTP server resolving layouts posted to /v1/resolve.

Includes are looked up in the configured include directories only.
Prometheus metrics are served on /metrics unless disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()
			if !cmd.Flags().Changed("addr") {
				opts.addr = cfg.Serve.Addr
			}
			if !cmd.Flags().Changed("no-metrics") {
				opts.noMetrics = !cfg.Serve.Metrics
			}
			opts.includes = append(append([]string(nil), cfg.IncludeDirs...), opts.includes...)
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringArrayVarP(&opts.includes, "include", "I", nil, "include directory (repeatable)")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics and request instrumentation")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	handler := c.serveHandler(opts)
	defer observability.Reset()

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	printInfo("Serving on %s", StyleHighlight.Render(ln.Addr().String()))
	printKeyValue("Resolve", "POST /v1/resolve")
	if !opts.noMetrics {
		printKeyValue("Metrics", "GET /metrics")
	}
	for _, dir := range opts.includes {
		printKeyValue("Include", dir)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		_ = srv.Close()
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// serveHandler builds the API handler. With metrics enabled, Prometheus
// hooks are installed on a fresh registry that /metrics exposes.
func (c *CLI) serveHandler(opts *serveOpts) http.Handler {
	cfg := c.cfg()
	scfg := server.Config{
		IncludeDirs:     opts.includes,
		MaxPermutations: cfg.MaxPermutations,
		MaxPasses:       cfg.MaxPasses,
		Logger:          c.Logger,
	}

	if !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		hooks := observability.NewPrometheusHooks(reg)
		observability.SetResolveHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
		scfg.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	return server.New(scfg).Handler()
}
