// osrpd is the oblivious SRP authentication server: an SRP-6a verifier
// service whose password verifiers are bound to rate-limited OPRF
// evaluations, so offline dictionary attacks against a stolen verifier
// store require online interaction with every OPRF server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/osrplabs/osrp/internal/api"
	"github.com/osrplabs/osrp/internal/auth"
	"github.com/osrplabs/osrp/internal/config"
	"github.com/osrplabs/osrp/internal/logging"
	"github.com/osrplabs/osrp/internal/store"
	"github.com/osrplabs/osrp/pkg/oprf"
)

var (
	// version is set by build flags
	version = "dev"
	// commit is set by build flags
	commit = "none"
)

func main() {
	configPath := flag.String("config", "/etc/osrpd/config.yaml", "path to configuration file")
	generateKey := flag.String("generate-oprf-key", "", "generate a fresh OPRF private key at the given path and exit")
	flag.Parse()

	if *generateKey != "" {
		if err := writeOPRFKey(*generateKey); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("OPRF private key written to %s\n", *generateKey)
		return
	}

	if err := run(*configPath); err != nil {
		// Log error with default logger since config may not be loaded
		logger := logging.New(logging.LevelError, logging.FormatJSON)
		logger.Error("service failed", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(parseLogLevel(cfg.Logging.Level), parseLogFormat(cfg.Logging.Format))

	logger.Info("osrpd starting", map[string]any{
		"version":           version,
		"commit":            commit,
		"listen_address":    cfg.Address(),
		"rate_window_ms":    cfg.RateLimit.WindowMS,
		"rate_max_requests": cfg.RateLimit.MaxRequests,
		"database_path":     cfg.Service.DatabasePath,
	})

	// Storage.
	st, err := store.Open(cfg.Service.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// Protocol server, with an injected OPRF key when configured.
	authCfg := auth.Config{
		RateWindow:      cfg.RateWindow(),
		RateMaxRequests: cfg.RateLimit.MaxRequests,
	}
	if cfg.OPRF.PrivateKeyFile != "" {
		keyBytes, err := os.ReadFile(cfg.OPRF.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read OPRF key: %w", err)
		}
		authCfg.OPRFPrivateKey = keyBytes
	}
	authServer, err := auth.NewServer(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth server: %w", err)
	}
	defer authServer.Close()
	if cfg.OPRF.PrivateKeyFile == "" {
		logger.Warn("OPRF key generated in-process; registrations will not survive a restart without a configured key file")
	}

	loginTTL, err := cfg.GetLoginTTL()
	if err != nil {
		return err
	}
	logins := auth.NewLoginStore(loginTTL)
	defer logins.Stop()

	sessionTTL, err := cfg.GetSessionTTL()
	if err != nil {
		return err
	}
	masterSecret, err := auth.GenerateMasterSecret()
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionManager(masterSecret, sessionTTL)
	if err != nil {
		return err
	}
	defer sessions.Stop()

	retryAfter := int(cfg.RateWindow().Seconds())
	handlers := api.NewHandlers(st, authServer, logins, sessions, retryAfter)
	server := api.New(cfg, logger, handlers)

	// Serve until SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return server.Start(ctx)
}

// writeOPRFKey generates a fresh key and writes it with owner-only
// permissions, refusing to clobber an existing file.
func writeOPRFKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing key file %s", path)
	}

	server, err := oprf.NewServer()
	if err != nil {
		return err
	}
	keyBytes, err := server.PrivateKeyBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, keyBytes, 0o600)
}

// parseLogLevel converts a config string to a log level.
func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// parseLogFormat converts a config string to a log format.
func parseLogFormat(format string) logging.LogFormat {
	if format == "human" {
		return logging.FormatHuman
	}
	return logging.FormatJSON
}
