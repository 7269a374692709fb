// Command linguaccess runs the LinguAccess pronunciation evaluation service.
//
//	linguaccess serve --config config.yaml
//	linguaccess evaluate --expected "I like cats" --spoken "I like cat"
//	linguaccess evaluate --expected "hola" --audio hola.wav --language es-ES
//	linguaccess version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/MrWong99/linguaccess/internal/app"
	"github.com/MrWong99/linguaccess/internal/config"
	"github.com/MrWong99/linguaccess/internal/observe"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// logLevel backs the default logger so config reloads can change it.
var logLevel = new(slog.LevelVar)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "linguaccess: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linguaccess",
		Short:         "Pronunciation evaluation service for language learners",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML configuration file")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the config (ignored when missing)")

	root.AddCommand(newServeCmd(), newEvaluateCmd(), newVersionCmd())
	return root
}

// ── serve ─────────────────────────────────────────────────────────────────────

func newServeCmd() *cobra.Command {
	var watchInterval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return serve(cmd.Context(), path, watchInterval)
		},
	}
	cmd.Flags().DurationVar(&watchInterval, "watch-interval", config.DefaultWatchInterval, "how often the config file is checked for changes (0 disables)")
	return cmd
}

func serve(ctx context.Context, configPath string, watchInterval time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", configPath)
		}
		return err
	}
	logLevel.Set(cfg.Server.LogLevel.Level())
	if cfg.Server.LogLevel == config.LogDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("linguaccess starting",
		"version", version,
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"asr_backend", cfg.ASR.Backend,
	)

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "error", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg.ASR)

	opts := []app.Option{
		app.WithVersion(version),
		app.WithRegistry(reg),
		app.WithLevelVar(logLevel),
	}
	if watchInterval > 0 {
		opts = append(opts, app.WithConfigFile(configPath, watchInterval))
	}
	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	slog.Info("server ready, press Ctrl+C to shut down")
	runErr := application.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}

// ── evaluate ──────────────────────────────────────────────────────────────────

type evaluateFlags struct {
	expected  string
	spoken    string
	audioPath string
	language  string
}

func newEvaluateCmd() *cobra.Command {
	var f evaluateFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one attempt and print the result as JSON",
		Long: "Score one attempt and print the result as JSON.\n\n" +
			"With --spoken the transcript is scored directly. With --audio the\n" +
			"recording is transcribed by the configured ASR backend first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return evaluate(cmd, path, f)
		},
	}
	cmd.Flags().StringVar(&f.expected, "expected", "", "the sentence the learner was asked to say")
	cmd.Flags().StringVar(&f.spoken, "spoken", "", "what the learner said")
	cmd.Flags().StringVar(&f.audioPath, "audio", "", "recording to transcribe instead of --spoken")
	cmd.Flags().StringVar(&f.language, "language", "en-US", "BCP-47 language tag of the recording")
	_ = cmd.MarkFlagRequired("expected")
	cmd.MarkFlagsMutuallyExclusive("spoken", "audio")
	return cmd
}

func evaluate(cmd *cobra.Command, configPath string, f evaluateFlags) error {
	ctx := cmd.Context()

	// The config is optional for plain text scoring.
	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && f.audioPath == "":
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	case err != nil:
		return err
	}
	logLevel.Set(cfg.Server.LogLevel.Level())

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg.ASR)
	if f.audioPath == "" {
		// No recognition needed.
		cfg.ASR.Backend = asr.BackendUnavailable.String()
	}
	application, err := app.New(ctx, cfg, app.WithRegistry(reg), app.WithVersion(version))
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	spoken := f.spoken
	if f.audioPath != "" {
		data, err := os.ReadFile(f.audioPath)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		clip := asr.Clip{
			Data:        data,
			ContentType: mime.TypeByExtension(filepath.Ext(f.audioPath)),
			Filename:    filepath.Base(f.audioPath),
		}
		spoken = application.Transcriber().Transcribe(ctx, clip, f.language)
	}

	result := application.Scorer().Evaluate(f.expected, spoken)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ── version ───────────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "linguaccess", version)
		},
	}
}
