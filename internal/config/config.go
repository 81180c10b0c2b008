// Package config resolves settings from .env files, the environment and command-line flags.
// Flags win over the environment, which wins over the defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/litescript/ls-awaydays/internal/timeline"
)

// DefaultTeam is played when no team is given.
const DefaultTeam = "BEL"

// AtEnd is the -at value meaning "after the last event".
const AtEnd = -1

// Config holds all configuration for a run.
type Config struct {
	// Dataset
	Team     string
	Data     string
	Stadiums string
	Texture  string

	// Logging
	LogLevel string
	LogFile  string

	// Server
	ServerAddr  string
	CORSOrigins []string
	RedisURL    string

	// Playback timings
	Timings timeline.Config

	// Headless modes
	Summary      bool
	At           int
	SnapshotPath string
	List         bool
	ExportSQLite string
}

// LoadDotEnv loads .env, then lets .env.local override it. Missing files are ignored.
func LoadDotEnv(dir string) {
	_ = godotenv.Load(joinPath(dir, ".env"))
	_ = godotenv.Overload(joinPath(dir, ".env.local"))
}

// FromEnv reads configuration from environment variables with defaults.
func FromEnv() *Config {
	defaults := timeline.DefaultConfig()
	return &Config{
		Team:     strings.ToUpper(getEnv("AWAYDAYS_TEAM", DefaultTeam)),
		Data:     getEnv("AWAYDAYS_DATA", ""),
		Stadiums: getEnv("AWAYDAYS_STADIUMS", ""),
		Texture:  getEnv("AWAYDAYS_TEXTURE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("AWAYDAYS_LOG_FILE", ""),

		ServerAddr:  getEnv("SERVER_ADDR", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		RedisURL:    getEnv("REDIS_URL", ""),

		Timings: timeline.Config{
			WarmUp:          getEnvMillis("WARMUP_MS", defaults.WarmUp),
			ArcDuration:     getEnvMillis("ARC_DURATION_MS", defaults.ArcDuration),
			InterEventDelay: getEnvMillis("INTER_EVENT_DELAY_MS", defaults.InterEventDelay),
			HomeDwell:       getEnvMillis("HOME_DWELL_MS", defaults.HomeDwell),
			FrameInterval:   getEnvMillis("FRAME_INTERVAL_MS", defaults.FrameInterval),
		},

		At: AtEnd,
	}
}

// Parse applies command-line flags on top of the environment.
// A single positional argument is taken as the team code.
func Parse(args []string, stderr io.Writer) (*Config, error) {
	cfg := FromEnv()

	fs := flag.NewFlagSet("ls-awaydays", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.Team, "team", cfg.Team, "Team code to play (e.g. BEL)")
	fs.StringVar(&cfg.Data, "data", cfg.Data, "Trips source: file, http(s) URL, sqlite://path or postgres://dsn (default: embedded)")
	fs.StringVar(&cfg.Stadiums, "stadiums", cfg.Stadiums, "Stadiums source: file or http(s) URL (default: embedded)")
	fs.StringVar(&cfg.Texture, "texture", cfg.Texture, "Equirectangular globe image (PNG or JPEG)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file (TUI mode discards them otherwise)")
	fs.BoolVar(&cfg.Summary, "summary", false, "Print text summary instead of TUI")
	fs.IntVar(&cfg.At, "at", AtEnd, "Playback position for headless output (default: end)")
	fs.StringVar(&cfg.SnapshotPath, "snapshot-path", "", "Export JSON snapshot to file (use - for stdout)")
	fs.BoolVar(&cfg.List, "list", false, "List teams in the dataset")
	fs.StringVar(&cfg.ServerAddr, "serve", cfg.ServerAddr, "Serve the HTTP/WebSocket API on this address (e.g. :8080)")
	fs.StringVar(&cfg.ExportSQLite, "export-sqlite", "", "Write the dataset to a SQLite database and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Team = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one team code, got %d arguments", fs.NArg())
	}
	cfg.Team = strings.ToUpper(strings.TrimSpace(cfg.Team))

	if cfg.At < AtEnd {
		return nil, fmt.Errorf("-at must be >= 0, got %d", cfg.At)
	}
	return cfg, nil
}

// Headless reports whether any non-interactive mode was requested.
func (c *Config) Headless() bool {
	return c.Summary || c.SnapshotPath != "" || c.List || c.ExportSQLite != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms < 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}
