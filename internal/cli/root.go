package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/runrgateway/internal/core/config"
	"github.com/vietddude/runrgateway/internal/metrics"
	"github.com/vietddude/runrgateway/pkg/gateway"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
	"github.com/vietddude/runrgateway/pkg/gateway/jobcache"
	"github.com/vietddude/runrgateway/pkg/gateway/transport"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "gatewayctl",
	Short: "Call tools through the runr gateway",
	Long:  `gatewayctl issues capability tokens and proxies tool invocations through a runr gateway.`,

	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Commands return their errors so deferred
// cleanup runs; the process exits here, once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logFailure(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "gateway.yaml", "config file (default is gateway.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// commandError pairs a failure with the message it is logged under.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func fail(msg string, err error) error {
	return &commandError{msg: msg, err: err}
}

// logFailure logs err with the gateway error details when there are any.
func logFailure(err error) {
	msg := "Command failed"
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		msg, err = cmdErr.msg, cmdErr.err
	}

	attrs := []any{"error", err}
	if gwErr, ok := gwerr.As(err); ok {
		attrs = append(attrs, "kind", gwErr.Kind.String())
		if gwErr.StatusCode != 0 {
			attrs = append(attrs, "status", gwErr.StatusCode)
		}
		if gwErr.HasRetryAfter {
			attrs = append(attrs, "retry_after", gwErr.RetryAfter)
		}
	}
	slog.Error(msg, attrs...)
}

// session is a configured client plus whatever it needs torn down.
type session struct {
	client  *gateway.Client
	metrics *metrics.Server
}

func (s *session) Close() {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metrics.Stop(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", "error", err)
		}
	}
	if err := s.client.Close(); err != nil {
		slog.Warn("Failed to close gateway client", "error", err)
	}
}

// openSession loads configuration, sets up logging and builds the client.
func openSession() (*session, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fail("Failed to load config", err)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fail("Invalid config", err)
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, fail("Failed to build client config", err)
	}
	clientCfg.Logger = slog.Default()

	if cfg.Redis.URL != "" {
		cache, err := jobcache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, fail("Failed to connect job cache", err)
		}
		clientCfg.JobCache = cache
	} else {
		clientCfg.JobCache = jobcache.NewMemory(cfg.Redis.JobTTL)
	}

	client, err := gateway.New(clientCfg)
	if err != nil {
		_ = clientCfg.JobCache.Close()
		return nil, fail("Failed to initialize gateway client", err)
	}

	s := &session{client: client}
	if cfg.Metrics.Port > 0 {
		s.metrics = metrics.NewServer(cfg.Metrics.Port, gatewayHealth(client))
		go func() {
			if err := s.metrics.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		slog.Debug("Metrics server started", "port", cfg.Metrics.Port)
	}

	return s, nil
}

// gatewayHealth reports the client's view of the gateway. Blocked
// credentials are critical; throttling and slowness are not.
func gatewayHealth(client *gateway.Client) metrics.HealthCheck {
	return func() (string, bool) {
		stats, ok := client.Stats()
		if !ok {
			return "unknown", false
		}
		return stats.Status.String(), stats.Status == transport.StatusBlocked
	}
}

func printJSON(v any) error {
	out, err := marshalIndent(v)
	if err != nil {
		return fail("Failed to encode output", err)
	}
	fmt.Println(string(out))
	return nil
}
