// SessionGate - a stateless HTTP gateway that brokers provider sessions for
// chat completion requests.
//
// Boot order: flags, .env, logging, config, gateway. The gateway serves in a
// goroutine; main blocks until SIGINT/SIGTERM or a server error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sessiongate/session-gateway/internal/config"
	"github.com/sessiongate/session-gateway/internal/gateway"
)

func main() {
	var (
		configFlag string
		portFlag   int
		debugFlag  bool
	)
	flag.StringVar(&configFlag, "config", "", "path to YAML config file")
	flag.IntVar(&portFlag, "port", 0, "listen port (overrides config)")
	flag.BoolVar(&debugFlag, "debug", false, "enable debug logging")
	flag.Parse()

	// Real environment variables win over .env file values.
	_ = godotenv.Load()

	setupLogging(debugFlag, nil)

	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if portFlag != 0 {
		if portFlag < 1 || portFlag > 65535 {
			fmt.Fprintf(os.Stderr, "Error: invalid port %d\n", portFlag)
			os.Exit(1)
		}
		cfg.Server.Port = portFlag
	}

	// Re-run with the loaded config so log level, format, and output follow it.
	setupLogging(debugFlag, &cfg.Monitoring)

	gw := gateway.New(cfg)

	// Start gateway in a goroutine (it blocks on ListenAndServe)
	gwErrCh := make(chan error, 1)
	go func() {
		gwErrCh <- gw.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-gwErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("gateway server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if err := gw.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown did not complete cleanly")
		}
		<-gwErrCh
	}
}
