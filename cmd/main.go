package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/domain"
	kilnhttp "github.com/davidbz/kiln/internal/http"
	"github.com/davidbz/kiln/internal/observability"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagValues mirrors the command line; only flags the user set override
// environment configuration.
type flagValues struct {
	host           string
	port           int
	pretrained     string
	authPrefix     string
	dryRun         bool
	sslCertificate string
	sslKeyfile     string
}

func newRootCmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Authenticated completion server for a single local model",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagOverrides(cmd, &flags)...)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.host, "host", "0.0.0.0", "interface to listen on")
	f.IntVar(&flags.port, "port", 8000, "port to listen on")
	f.StringVar(&flags.pretrained, "pretrained", "starcoder", "name of the served model")
	f.StringVar(&flags.authPrefix, "auth-prefix", "<secret_key>", "required prefix of bearer credentials")
	f.BoolVar(&flags.dryRun, "dry-run", false, "serve an echo engine instead of a model")
	f.StringVar(&flags.sslCertificate, "ssl-certificate", "", "TLS certificate file")
	f.StringVar(&flags.sslKeyfile, "ssl-keyfile", "", "TLS key file")

	return cmd
}

func flagOverrides(cmd *cobra.Command, flags *flagValues) []config.Option {
	changed := cmd.Flags().Changed
	var opts []config.Option

	if changed("host") {
		opts = append(opts, func(cfg *config.Config) { cfg.Server.Host = flags.host })
	}
	if changed("port") {
		opts = append(opts, func(cfg *config.Config) { cfg.Server.Port = flags.port })
	}
	if changed("pretrained") {
		opts = append(opts, func(cfg *config.Config) { cfg.Model.Name = flags.pretrained })
	}
	if changed("auth-prefix") {
		opts = append(opts, func(cfg *config.Config) { cfg.Model.AuthPrefix = flags.authPrefix })
	}
	if changed("dry-run") {
		opts = append(opts, func(cfg *config.Config) { cfg.Model.DryRun = flags.dryRun })
	}
	if changed("ssl-certificate") {
		opts = append(opts, func(cfg *config.Config) { cfg.Server.TLSCertFile = flags.sslCertificate })
	}
	if changed("ssl-keyfile") {
		opts = append(opts, func(cfg *config.Config) { cfg.Server.TLSKeyFile = flags.sslKeyfile })
	}

	return opts
}

// run serves until SIGINT or SIGTERM. The worker outlives the HTTP server so
// requests still in flight during shutdown get their results.
func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := buildContainer(cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(
		logger *zap.Logger,
		queue *domain.AdmissionQueue,
		server *kilnhttp.Server,
	) error {
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
		defer stopQueue()

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return queue.Run(queueCtx)
		})

		g.Go(func() error {
			return server.Start(gctx)
		})

		g.Go(func() error {
			<-gctx.Done()
			defer stopQueue()
			return server.Shutdown(context.WithoutCancel(gctx))
		})

		err := g.Wait()
		observability.FromContext(ctx).Info("server stopped")
		return err
	})
}
