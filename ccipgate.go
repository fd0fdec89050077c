package ccipgate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	stdruntime "runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/internal/pkg/safety"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/gateway"
	"github.com/nite-coder/ccipgate/pkg/initialize"
	"github.com/nite-coder/ccipgate/pkg/timecache"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

const defaultGracefulTimeout = 10 * time.Second

type options struct {
	version string
	build   string
	flags   []cli.Flag
	init    func(*cli.Context, config.Options) error
}

type Option func(*options)

// WithVersion sets the application version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithFlags adds custom CLI flags.
func WithFlags(flags ...cli.Flag) Option {
	return func(o *options) {
		o.flags = append(o.flags, flags...)
	}
}

// WithInit registers a hook that runs after the config is loaded and before the gateway starts.
func WithInit(fn func(*cli.Context, config.Options) error) Option {
	return func(o *options) {
		o.init = fn
	}
}

// Run parses the command line, loads the config and serves until SIGINT or SIGTERM.
func Run(opts ...Option) error {
	opt := &options{
		version: "0.0.0",
		build:   "unknown",
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				opt.build = setting.Value
				break
			}
		}
	}

	for _, o := range opts {
		o(opt)
	}

	cli.VersionPrinter = func(cliCtx *cli.Context) {
		fmt.Printf("version=%s, build=%s, go=%s\n", cliCtx.App.Version, opt.build, stdruntime.Version())
	}

	app := &cli.App{
		Name:    "ccipgate",
		Usage:   "CCIP-Read gateway for names under a registry backed root domain",
		Version: opt.version,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "",
				Usage:   "The path to the configuration file",
			},
			&cli.BoolFlag{
				Name:    "test",
				Aliases: []string{"t"},
				Value:   false,
				Usage:   "Test the gateway conf and then exit",
			},
		}, opt.flags...),
		Action: func(cCtx *cli.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("unknown error",
						slog.Any("error", r),
						slog.String("stack", cast.B2S(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
			}()

			isTest := cCtx.Bool("test")
			mainOptions, err := config.Load(cCtx.String("config"))
			if err != nil {
				slog.Error("failed to load config", "error", err.Error())
				if isTest {
					slog.Info("the configuration file test has failed")
				}
				return err
			}

			if isTest {
				slog.Info("the config file tested successfully", "path", mainOptions.ConfigPath())
				return nil
			}

			if err := initialize.Logger(mainOptions); err != nil {
				return err
			}

			if opt.init != nil {
				if err := opt.init(cCtx, mainOptions); err != nil {
					return err
				}
			}

			return serve(mainOptions)
		},
	}

	return app.Run(os.Args)
}

func serve(mainOptions config.Options) error {
	if mainOptions.TimerResolution > 0 {
		tc := timecache.New(mainOptions.TimerResolution)
		timecache.Set(tc)
		defer tc.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.New(ctx, mainOptions)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go safety.Go(ctx, func() {
		errCh <- gw.Run()
	})

	select {
	case err = <-errCh:
		slog.Error("server stopped unexpectedly", "error", err)
	case <-ctx.Done():
		slog.Info("shutting down", "pid", os.Getpid())
	}

	timeout := mainOptions.Server.Timeout.Graceful
	if timeout <= 0 {
		timeout = defaultGracefulTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if shutdownErr := gw.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("shutdown failed", "error", shutdownErr)
	}

	return err
}
