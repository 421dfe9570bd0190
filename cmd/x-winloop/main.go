package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ItsNotGoodName/x-winloop/internal/app"
	"github.com/ItsNotGoodName/x-winloop/internal/build"
	"github.com/ItsNotGoodName/x-winloop/internal/bus"
	"github.com/ItsNotGoodName/x-winloop/internal/config"
	"github.com/ItsNotGoodName/x-winloop/internal/core"
	"github.com/ItsNotGoodName/x-winloop/internal/srv"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/ItsNotGoodName/x-winloop/internal/xwm"
	"github.com/ItsNotGoodName/x-winloop/pkg/sutureext"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
)

type Options struct {
	Debug   bool   `doc:"enable debug"`
	Host    string `doc:"host to listen on"`
	Port    int    `doc:"port to listen on" default:"8080"`
	Config  string `doc:"config file" default:".x-winloop.yaml"`
	Display string `doc:"X display to manage"`
}

func main() {
	godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		if options.Debug {
			InitLogger(slog.LevelDebug)
		} else {
			InitLogger(slog.LevelInfo)
		}

		OnServe(hooks, func(ctx context.Context) error {
			bus.SetContext(ctx)

			configFilePath, err := filepath.Abs(options.Config)
			if err != nil {
				return err
			}

			store, err := config.NewStore(config.NewYAML(configFilePath))
			if err != nil {
				return err
			}

			if err := app.NormalizeConfig(&store); err != nil {
				return err
			}

			cfg, err := store.GetConfig()
			if err != nil {
				return err
			}

			display := options.Display
			if display == "" {
				display = cfg.Display
			}

			conn, err := xconn.Connect(display)
			if err != nil {
				return err
			}
			defer conn.Close()

			eventLoop, err := xwm.New(conn, xwm.Options{
				Rules: app.Rules(cfg),
				Debug: options.Debug,
			})
			if err != nil {
				return err
			}

			hub := bus.NewHub[xwm.StoreChanged]().Register()

			super := sutureext.NewSimple("root")
			sutureext.Add(super, srv.New(
				core.Address(options.Host, options.Port),
				eventLoop.Store(),
				eventLoop.Proxy(),
				hub,
			))
			super.ServeBackground(ctx)

			return eventLoop.Run(ctx, app.Handler())
		})
	})

	cli.Root().Version = build.Current.Version

	cli.Run()
}

func InitLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}

func OnServe(hooks humacli.Hooks, serveFn func(ctx context.Context) error) {
	stopC := make(chan struct{})
	hooks.OnStart(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errC := make(chan error, 1)

		go func() { errC <- serveFn(ctx) }()

		select {
		case <-stopC:
			cancel()
		case err := <-errC:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Fatal(err)
			}
			return
		}

		<-errC
		<-stopC
	})
	hooks.OnStop(func() {
		stopC <- struct{}{}
		stopC <- struct{}{}
	})
}
