// Lathe is a voice-driven CAD assistant daemon. It loads STEP models,
// interprets spoken or typed commands as geometry mutations, and serves
// the resulting mesh, assembly tree, and Hasse diagram over HTTP.
//
// Usage:
//
//	lathe [flags]
//	lathe --config /path/to/lathe.yaml
//
// @title        Lathe API
// @version      1.0
// @description  Voice-driven CAD assistant: upload a STEP model, then modify and query it by voice or text.
// @BasePath     /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/nadzzz/lathe/docs"
	"github.com/nadzzz/lathe/internal/config"
	"github.com/nadzzz/lathe/internal/dispatch"
	"github.com/nadzzz/lathe/internal/executor"
	"github.com/nadzzz/lathe/internal/geometry"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
	"github.com/nadzzz/lathe/internal/health"
	"github.com/nadzzz/lathe/internal/interpreter"
	localinterp "github.com/nadzzz/lathe/internal/interpreter/local"
	openaiinterp "github.com/nadzzz/lathe/internal/interpreter/openai"
	"github.com/nadzzz/lathe/internal/server"
	"github.com/nadzzz/lathe/internal/session"
	"github.com/nadzzz/lathe/internal/tts"
	piperTTS "github.com/nadzzz/lathe/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/lathe.local.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lathe %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("lathe starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the geometry kernel.
	var kernel geometry.Kernel
	switch cfg.Kernel.Backend {
	case "sdfx":
		kernel = sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells))
		slog.Info("using sdfx kernel", "mesh_cells", cfg.Kernel.MeshCells)
	default:
		slog.Error("unknown kernel backend", "backend", cfg.Kernel.Backend)
		os.Exit(1)
	}

	// Initialize the interpreter backend.
	var interp interpreter.Interpreter
	switch cfg.Interpreter.Backend {
	case "openai":
		interp = openaiinterp.New(cfg.Interpreter.OpenAI)
		slog.Info("using OpenAI-compatible interpreter",
			"base_url", cfg.Interpreter.OpenAI.BaseURL,
			"transcription_model", cfg.Interpreter.OpenAI.TranscriptionModel,
			"completion_model", cfg.Interpreter.OpenAI.CompletionModel)
	case "local":
		interp = localinterp.New(cfg.Interpreter.Local)
		slog.Info("using local interpreter",
			"whisper", cfg.Interpreter.Local.WhisperEndpoint,
			"llm", cfg.Interpreter.Local.LLMEndpoint)
	default:
		slog.Error("unknown interpreter backend", "backend", cfg.Interpreter.Backend)
		os.Exit(1)
	}
	defer interp.Close()

	// Initialize TTS if enabled.
	var synthesizer tts.Synthesizer
	if cfg.TTS.Enabled {
		switch cfg.TTS.Backend {
		case "piper":
			synthesizer = piperTTS.New(cfg.TTS.Piper)
			slog.Info("using piper TTS", "endpoint", cfg.TTS.Piper.Endpoint, "voice", cfg.TTS.Piper.Voice)
		default:
			slog.Error("unknown tts backend", "backend", cfg.TTS.Backend)
			os.Exit(1)
		}
		defer synthesizer.Close()
	}

	// Wire the turn pipeline.
	sessions := session.NewManager(cfg.Server.AssetsDir)
	exec := executor.New(kernel, interp)
	dispatcher := dispatch.New(interp, exec, kernel, synthesizer, cfg.Kernel.Deflection)

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort, sessions.Count)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start the API server.
	apiServer := server.New(cfg.Server.Port, cfg.Server.AssetsDir, cfg.Kernel.Deflection, kernel, sessions, dispatcher)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.ListenAndServe(ctx); err != nil {
			slog.Error("api server failed", "error", err)
			cancel()
		}
	}()

	healthServer.SetReady(true)
	slog.Info("lathe ready",
		"port", cfg.Server.Port,
		"health_port", cfg.Server.HealthPort,
		"tts", cfg.TTS.Enabled)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	if err := apiServer.Close(); err != nil {
		slog.Error("api server close error", "error", err)
	}

	wg.Wait()
	slog.Info("lathe stopped")
}
