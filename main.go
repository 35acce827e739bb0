package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("cropview"),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(); err != nil {
		return err
	}

	return nil
}

type serveCmd struct {
	Port        int           `help:"Port to listen on; 0 picks a random free port" default:"0"`
	UploadDir   string        `help:"Directory for uploaded files; defaults to a temp dir"`
	MaxUpload   int64         `help:"Maximum upload size in bytes" default:"10485760"`
	SessionTTL  time.Duration `help:"Idle time before a session and its file are evicted" default:"5m"`
	SweepEvery  time.Duration `help:"Interval between idle-session sweeps" default:"30s"`
	KeepSources bool          `help:"Keep uploaded files after a successful crop instead of deleting them"`
	Open        bool          `help:"Open the browser automatically when the server starts" default:"true"`
	Verbose     bool          `help:"Enable verbose logging" default:"false"`
}

func (cmd *serveCmd) Run() error {
	level := zerolog.InfoLevel
	if cmd.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter()).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = log.Logger.WithContext(ctx)

	uploadDir := cmd.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "cropview")
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return err
	}

	store := NewSessionStore(uploadDir, cmd.SessionTTL)
	go store.Run(ctx, cmd.SweepEvery)
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to purge stored files")
		}
	}()

	app := NewWebApp(Config{
		MaxUploadBytes: cmd.MaxUpload,
		KeepSources:    cmd.KeepSources,
		Port:           cmd.Port,
		Store:          store,
		Cropper:        NewImagingCropper(),
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
	})

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}

type cliArgs struct {
	Serve serveCmd `cmd:"" default:"withargs"`
}
