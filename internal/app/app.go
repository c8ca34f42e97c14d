package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"safefeed/internal/config"
	"safefeed/internal/httpapi"
	"safefeed/internal/httpx"
	"safefeed/internal/logging"
)

const shutdownTimeout = 20 * time.Second

func Main() {
	if err := Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "safefeed: %v\n", err)
		os.Exit(1)
	}
}

func Run(args []string) error {
	return newApp(os.Stdout).Run(args)
}

func newApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:   "safefeed",
		Usage:  "content moderation and support routing service",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Before: func(cctx *cli.Context) error {
			if path := cctx.String("config"); path != "" {
				return os.Setenv("CONFIG_PATH", path)
			}
			return nil
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP API and scheduled jobs",
			Action: runServe,
		},
		{
			Name:      "classify",
			Usage:     "classify text and print the verdict",
			ArgsUsage: "<text>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "offline",
					Usage: "use only the keyword detector",
				},
			},
			Action: runClassify,
		},
		{
			Name:      "route",
			Usage:     "route a support message and print the reply",
			ArgsUsage: "<message>",
			Action:    runRoute,
		},
	}
	return app
}

// setup loads config and builds the logger shared by every command.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(cctx *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	logger.Info("config loaded",
		zap.String("listen", cfg.ListenAddr),
		zap.String("classifier", cfg.ClassifierProvider),
		zap.String("counsel", cfg.CounselProvider),
		zap.String("memory", cfg.MemoryBackend),
		zap.Bool("slack", cfg.SlackConfigured()),
		zap.String("timezone", cfg.Timezone),
		zap.Duration("external_http_timeout", appliedHTTPTimeout),
	)

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpapi.New(httpapi.Deps{
		Moderation: c.moderation,
		Support:    c.responder,
		Classifier: c.monitor,
		Stats:      c.store,
		Logger:     logger,
	})
	sched, err := c.scheduler(cfg)
	if err != nil {
		c.close(context.Background())
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		return srv.Start(cfg.ListenAddr)
	})
	sched.Start()
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := sched.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
		}
		if err := c.close(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

func runClassify(cctx *cli.Context) error {
	text := strings.Join(cctx.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("need text to classify as an argument")
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)

	provider := cfg.ClassifierProvider
	if cctx.Bool("offline") {
		provider = providerFallback
	}
	gw, _, err := newGateway(cfg, provider, false, logger)
	if err != nil {
		return err
	}
	defer gw.Close(context.Background()) //nolint:errcheck

	return writeJSON(cctx.App.Writer, gw.Classify(cctx.Context, text))
}

func runRoute(cctx *cli.Context) error {
	message := strings.Join(cctx.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("need a message to route as an argument")
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	responder := newTemplateResponder(cfg, logger)
	reply := responder.Respond(cctx.Context, "", message)
	responder.Wait()
	return writeJSON(cctx.App.Writer, reply)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
