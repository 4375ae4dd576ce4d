package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	LogLevel       string
	Endpoint       string
	Token          string
	Namespace      string
	TLSInsecure    bool
	Executable     string
	UserConfigPath string
	MaxDispatches  int
}

func Load() (*Config, error) {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	namespace := os.Getenv("JMP_NAMESPACE")
	if namespace == "" {
		namespace = "jumpstarter-lab"
	}

	executable := os.Getenv("JMP_EXECUTABLE")
	if executable == "" {
		executable = "jmp"
	}

	userConfigPath := os.Getenv("JMP_USER_CONFIG")
	if userConfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		userConfigPath = filepath.Join(home, ".config", "jumpstarter", "config.yaml")
	}

	maxDispatches := 5
	if v := os.Getenv("MAX_CONCURRENT_DISPATCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 1 {
				n = 1
			} else if n > 20 {
				n = 20
			}
			maxDispatches = n
		}
	}

	insecure := false
	if v := os.Getenv("JMP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			insecure = b
		}
	}

	return &Config{
		Port:           port,
		LogLevel:       logLevel,
		Endpoint:       os.Getenv("JMP_ENDPOINT"),
		Token:          os.Getenv("JMP_TOKEN"),
		Namespace:      namespace,
		TLSInsecure:    insecure,
		Executable:     executable,
		UserConfigPath: userConfigPath,
		MaxDispatches:  maxDispatches,
	}, nil
}

// SetupLogging initializes the global slog logger with JSON output at the
// specified level. Logs go to stderr so they never interfere with transports
// that own stdout.
func SetupLogging(level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
