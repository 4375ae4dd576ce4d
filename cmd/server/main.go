package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/config"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/discovery"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	mcpserver "github.com/jumpstarter-dev/mcp-jumpstarter/pkg/mcp"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/telemetry"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.LogLevel)

	slog.Info("starting jumpstarter-mcp server", "namespace", cfg.Namespace, "port", cfg.Port, "executable", cfg.Executable)

	// Initialize OpenTelemetry traces, metrics, and log export
	tracerShutdown, err := telemetry.InitTracer(context.Background(), cfg.Namespace)
	if err != nil {
		slog.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	meterShutdown, err := telemetry.InitMeter(context.Background(), cfg.Namespace)
	if err != nil {
		slog.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	logsShutdown, err := telemetry.InitLogs(context.Background(), cfg.Namespace)
	if err != nil {
		slog.Error("failed to initialize log export", "error", err)
		os.Exit(1)
	}

	runner := dispatch.NewRunner(cfg.MaxDispatches)

	// Create tool registry. The tool surface is fixed: operations that need
	// the controller report a per-call error when it is unreachable.
	registry := tools.NewRegistry()

	base := tools.BaseTool{Cfg: cfg, Runner: runner}

	registry.Register(&tools.GetConfigTool{BaseTool: base})
	registry.Register(&tools.ListExportersTool{BaseTool: base})
	registry.Register(&tools.ListLeasesTool{BaseTool: base})
	registry.Register(&tools.CreateLeaseTool{BaseTool: base})
	registry.Register(&tools.PowerControlTool{BaseTool: base})
	registry.Register(&tools.SerialConsoleTool{BaseTool: base})
	registry.Register(&tools.ExecuteShellTool{BaseTool: base})
	registry.Register(&tools.StorageFlashTool{BaseTool: base})
	registry.Register(&tools.SSHForwardTool{BaseTool: base})
	registry.Register(&tools.RunCommandTool{BaseTool: base})

	// Create MCP server
	srv := mcpserver.NewServer(registry)

	// Controller availability polling feeds readiness; the tool surface
	// stays fixed, but a transition re-syncs the registry with the server.
	disc := discovery.New(cfg, func(available bool) {
		if available {
			slog.Info("controller available")
		} else {
			slog.Warn("controller unavailable; lease tools will report errors per call")
		}
		srv.SyncTools()
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	disc.Start(ctx)

	// Health check endpoints
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	healthMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !disc.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "not ready: initial controller discovery pending")
			return
		}
		// Ready even when the controller is down: tool calls report that
		// per invocation. The flag is still surfaced for operators.
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok controller_available=%t", disc.Available())
	})

	// Start health check server on a separate port
	go func() {
		healthAddr := fmt.Sprintf(":%d", cfg.Port+1)
		slog.Info("health check server listening", "addr", healthAddr)
		if err := http.ListenAndServe(healthAddr, healthMux); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()

	// Start MCP Streamable HTTP server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server ready", "port", cfg.Port)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Flush pending OTel data before exit
	if err := tracerShutdown(shutdownCtx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}
	if err := meterShutdown(shutdownCtx); err != nil {
		slog.Error("meter shutdown error", "error", err)
	}
	if err := logsShutdown(shutdownCtx); err != nil {
		slog.Error("log export shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
