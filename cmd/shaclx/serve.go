package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/server"
	"github.com/geoknoesis/shacl-go/transform"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr   string
		aiOpts aiFlags
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion and validation API over HTTP",
		Long: `Serve POST /v1/convert, /v1/apply and /v1/validate, GET /healthz and
Prometheus metrics on GET /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := transform.NewMetrics(reg)
			if err != nil {
				return err
			}
			if err := a.setup(cmd, &aiOpts, transform.WithMetrics(metrics)); err != nil {
				return err
			}
			srv, err := server.New(a.engine,
				server.WithLogger(a.logger),
				server.WithRegistry(reg),
				server.WithCacheSize(a.cfg.Server.ShapesCacheSize),
				server.WithMaxBodyBytes(a.cfg.Limits.MaxInputBytes))
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return srv.ListenAndServe(cmd.Context(), addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	aiOpts.register(cmd)
	return cmd
}
