package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/server"
	"github.com/menta2k/image-annotator/pkg/detection"
	"github.com/menta2k/image-annotator/pkg/ollama"
	"github.com/menta2k/image-annotator/pkg/processing"
)

func main() {
	var cfgPath, addr, suggestURL, model string
	var suggest, debug, writeConfig, version bool

	flag.StringVar(&cfgPath, "config", "", "path to JSON config (default: none, built-in defaults)")
	flag.StringVar(&addr, "addr", "", "listen address (overrides config, default 127.0.0.1:7860)")
	flag.BoolVar(&suggest, "suggest", false, "enable box suggestions from an Ollama vision model")
	flag.StringVar(&suggestURL, "ollama", "", "Ollama server URL (overrides config)")
	flag.StringVar(&model, "model", "", "vision model name (overrides config)")
	flag.BoolVar(&writeConfig, "write-config", false, "write the effective config to -config (or the default path) and exit")
	flag.BoolVar(&debug, "debug", false, "log every request")
	flag.BoolVar(&version, "version", false, "print version and exit")
	flag.Parse()

	if version {
		fmt.Println(imageannotator.GetVersion())
		return
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			logger.Error("load config", slog.String("path", cfgPath), slog.String("err", err.Error()))
			os.Exit(1)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if suggest {
		cfg.Suggest.Enabled = true
	}
	if suggestURL != "" {
		cfg.Suggest.URL = suggestURL
	}
	if model != "" {
		cfg.Suggest.Model = model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if writeConfig {
		path := cfgPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if err := cfg.SaveToFile(path); err != nil {
			logger.Error("write config", slog.String("err", err.Error()))
			os.Exit(1)
		}
		logger.Info("wrote config", slog.String("path", path))
		return
	}

	opts := imageannotator.Options{
		Labels:          cfg.LabelConfig(),
		Extensions:      cfg.Ingest.Extensions,
		ExampleImageURL: cfg.Annotator.ExampleImageURL,
		ExampleBoxes:    cfg.Annotator.ExampleBoxes,
	}
	if cfg.Suggest.Enabled {
		visionClient, err := ollama.NewClient(cfg.Suggest.URL)
		if err != nil {
			logger.Error("create ollama client", slog.String("err", err.Error()))
			os.Exit(1)
		}
		opts.Suggester = detection.NewSuggester(visionClient, processing.NewProcessor(), cfg.LabelConfig(), detection.Options{
			Model:         cfg.Suggest.Model,
			SendFormat:    cfg.Suggest.SendFormat,
			SendSize:      cfg.Suggest.SendSize,
			SendQuality:   cfg.Suggest.SendQuality,
			MinConfidence: cfg.Suggest.MinConfidence,
		})
		logger.Info("box suggestions enabled", slog.String("url", cfg.Suggest.URL), slog.String("model", cfg.Suggest.Model))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(imageannotator.New(opts), cfg, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
