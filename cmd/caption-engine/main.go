package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/api"
	"github.com/snarg/caption-engine/internal/caption"
	"github.com/snarg/caption-engine/internal/config"
	"github.com/snarg/caption-engine/internal/metrics"
	"github.com/snarg/caption-engine/internal/mqttclient"
	"github.com/snarg/caption-engine/internal/stream"
	"github.com/snarg/caption-engine/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "HTTP listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace..error)")
	flag.StringVar(&overrides.Engine, "engine", "", `transcription engine ("http" or "local")`)
	flag.StringVar(&overrides.ModelPath, "model", "", "model weights file for the local engine")
	flag.StringVar(&overrides.Language, "language", "", `source language code, or "auto"`)
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Str("engine", cfg.Engine).Msg("caption-engine starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Transcription engine
	var (
		engine  transcribe.Engine
		watcher *transcribe.ModelWatcher
	)
	switch cfg.Engine {
	case "local":
		engine, err = transcribe.NewLocalEngine(transcribe.LocalEngineConfig{
			ModelPath: cfg.ModelPath,
			BinPath:   cfg.WhisperBin,
			UseGPU:    cfg.UseAccelerator,
			FlashAttn: cfg.AcceleratorFastPath,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up local engine")
		}
		watcher = transcribe.NewModelWatcher(cfg.ModelPath, log)
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("model watcher unavailable, continuing without it")
			watcher = nil
		} else {
			defer watcher.Stop()
		}
	default:
		engine = transcribe.NewHTTPEngine(cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperAPIKey, cfg.WhisperTimeout)
	}

	// Caption plumbing: one shared slot and gate for the renderer-facing
	// surface, one event bus for SSE and MQTT fan-out.
	slot := caption.NewSlot()
	gate := caption.NewGate(slot, cfg.StaleAfter)
	bus := caption.NewBus(256)

	// Streams
	mgr := stream.NewManager(log)
	defer mgr.CloseAll()

	defaultStream, err := stream.Open(stream.Config{
		ID:           "default",
		SampleRate:   cfg.SampleRate,
		Channels:     cfg.Channels,
		Language:     cfg.Language,
		Translate:    cfg.Translate,
		Window:       cfg.Window,
		Retain:       cfg.Retain,
		BufferCap:    cfg.BufferCap,
		PollInterval: cfg.PollInterval,
	}, engine, slot, bus, log)
	if err != nil {
		engine.Close()
		log.Fatal().Err(err).Msg("failed to open default stream")
	}
	if err := mgr.Add(defaultStream); err != nil {
		log.Fatal().Err(err).Msg("failed to register default stream")
	}

	prometheus.MustRegister(metrics.NewCollector(mgr, bus))

	// MQTT (optional)
	var mqtt *mqttclient.Client
	if cfg.MQTTBrokerURL != "" {
		mqttLog := log.With().Str("component", "mqtt").Logger()
		mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       mqttLog,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()

		sink := mqttclient.NewSink(mqtt, cfg.MQTTTopic, mqttLog)
		sink.Start(bus)
		defer sink.Stop()
	}

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	var modelStatus api.ModelStatusSource
	if watcher != nil {
		modelStatus = watcher
	}
	health := api.NewHealthHandler(mgr, mqtt, modelStatus, engine.Name(), version, startTime)
	srv := api.NewServer(cfg, mgr, gate, bus, health, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("caption-engine stopped")
}
