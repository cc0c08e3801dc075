// Command collectpreviews downloads the images listed in a file and stores a
// JPEG thumbnail of each one.
//
//	collectpreviews urls.txt --dir thumbs --threads 8 --size 160x120
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/spf13/pflag"

	"github.com/kbukum/previewkit/bootstrap"
	"github.com/kbukum/previewkit/collector"
	"github.com/kbukum/previewkit/config"
	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/httpclient"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/observability"
	"github.com/kbukum/previewkit/progress"
	"github.com/kbukum/previewkit/server"
	"github.com/kbukum/previewkit/storage"
	"github.com/kbukum/previewkit/thumbnail"
	"github.com/kbukum/previewkit/version"

	_ "github.com/kbukum/previewkit/storage/local"
	_ "github.com/kbukum/previewkit/storage/s3"
)

const envPrefix = "PREVIEWKIT"

// Exit codes.
const (
	exitOK    = 0
	exitRun   = 1
	exitUsage = 2
)

// flagKeys maps flags onto config keys. Flags missing here bind to their
// own name with dashes replaced by underscores.
var flagKeys = map[string]string{
	"dir":         "storage.base_path",
	"threads":     "producers",
	"status-addr": "status.addr",
	"log-level":   "logging.level",
	"config":      "",
	"version":     "",
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(collector.ServiceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("dir", "d", ".", "directory (or storage prefix) for thumbnails")
	fs.IntP("threads", "t", 1, "number of concurrent downloads")
	fs.Int("consumers", 0, "number of thumbnail workers (default: same as --threads)")
	fs.StringP("size", "s", "100x100", "thumbnail bounding box as <width>x<height>")
	fs.Int("quality", thumbnail.DefaultQuality, "JPEG quality")
	cfgFile := fs.String("config", "", "path to a YAML config file")
	fs.Bool("progress", false, "draw progress bars instead of one line per thumbnail")
	fs.String("status-addr", "", "serve run status over HTTP on this address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("no-manifest", false, "do not write manifest.json")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s FILE [flags]\n\nFILE lists one image URL per line.\n\nFlags:\n", collector.ServiceName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return exitUsage
	}
	if *showVersion {
		version.Print(stdout, collector.ServiceName)
		return exitOK
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(stderr, "The file of urls is required. Run \"%s --help\"\n", collector.ServiceName)
		return exitUsage
	}

	cfg := &collector.Config{}
	opts := []config.LoaderOption{
		config.WithEnvPrefix(envPrefix),
		config.WithFlags(fs, flagKeys),
	}
	if *cfgFile != "" {
		opts = append(opts, config.WithConfigFile(*cfgFile))
	}
	if err := config.LoadConfig(collector.ServiceName, cfg, opts...); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	cfg.Input = fs.Arg(0)
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	if fs.Changed("status-addr") {
		cfg.Status.Enabled = true
	}

	// The size gets its own message, matching the flag help.
	cfg.ApplyDefaults()
	if _, err := thumbnail.ParseSize(cfg.Size); err != nil {
		fmt.Fprintln(stderr, thumbnail.SizeFormatMessage)
		return exitUsage
	}

	srcs, err := collector.ReadURLFile(cfg.Input)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitRun
	}

	res, err := collect(ctx, cfg, srcs, stdout, stderr)
	if res != nil {
		_ = res.WriteSummary(stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.IsCode(err, errors.ErrCodeInvalidInput) {
			return exitUsage
		}
		return exitRun
	}
	return exitOK
}

// collect wires the components and runs the collector once. Per-URL
// failures only show up in the result; err reports run-level problems.
func collect(ctx context.Context, cfg *collector.Config, srcs []collector.Source, stdout, stderr io.Writer) (*collector.Result, error) {
	appOpts := []bootstrap.Option{
		bootstrap.WithComponentLoggers("collector", "pipeline", "httpclient"),
	}
	if cfg.Debug {
		appOpts = append(appOpts, bootstrap.WithSummary(stderr))
	}
	app, err := bootstrap.NewApp(cfg, appOpts...)
	if err != nil {
		return nil, err
	}

	telemetry := observability.NewComponent(cfg.Observability, app.Logger)
	store := storage.NewComponent(cfg.Storage, app.Logger)
	client := httpclient.NewComponent(cfg.HTTP, httpclient.WithLogger(logger.Get("httpclient")))
	if err := app.RegisterComponent(telemetry); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(store); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(client); err != nil {
		return nil, err
	}

	var current atomic.Pointer[collector.Collector]
	if cfg.Status.Enabled {
		srv := server.New(cfg.Status, app.Logger.WithComponent("status"))
		srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)
		srv.RegisterStatus(func(context.Context) (any, error) {
			c := current.Load()
			if c == nil {
				return collector.Status{State: collector.StateIdle}, nil
			}
			return c.Status(), nil
		})
		if err := app.RegisterComponent(srv); err != nil {
			return nil, err
		}
	}

	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*collector.Config]) error {
		opts := []collector.Option{collector.WithLogger(logger.Get("collector"))}
		if a.Cfg.Observability.Enabled {
			metrics, err := observability.NewPipelineMetrics(observability.Meter(collector.ServiceName))
			if err != nil {
				return errors.SetupFailed("pipeline metrics", err)
			}
			opts = append(opts, collector.WithObserver(metrics))
		}
		if a.Cfg.Progress {
			opts = append(opts, collector.WithObserver(progress.New(stdout)))
		} else {
			opts = append(opts, collector.WithEcho(stdout))
		}

		c, err := collector.New(a.Cfg, client.Client(), storage.NewByteClient(store.Storage()), opts...)
		if err != nil {
			return err
		}
		current.Store(c)
		return nil
	})

	var res *collector.Result
	err = app.RunTask(ctx, func(ctx context.Context) error {
		var runErr error
		res, runErr = current.Load().RunSources(ctx, srcs)
		return runErr
	})
	return res, err
}
