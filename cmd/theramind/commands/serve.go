package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theramind/theramind/internal/logging"
	"github.com/theramind/theramind/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TheraMind HTTP server",
	Long: `Start TheraMind as a server exposing the counseling API over HTTP,
including an SSE stream of turn and session events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "hostname", "127.0.0.1", "Hostname to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap()
	if err != nil {
		return err
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Host = serveHost
	serverConfig.Port = servePort
	if app.cfg.Server != nil {
		if app.cfg.Server.Host != "" && !cmd.Flags().Changed("hostname") {
			serverConfig.Host = app.cfg.Server.Host
		}
		if app.cfg.Server.Port != 0 && !cmd.Flags().Changed("port") {
			serverConfig.Port = app.cfg.Server.Port
		}
	}

	srv := server.New(serverConfig, app.cfg, app.store, app.orchestrator)

	go func() {
		logging.Info().
			Str("host", serverConfig.Host).
			Int("port", serverConfig.Port).
			Msg("server listening")
		fmt.Printf("TheraMind listening on http://%s:%d\n", serverConfig.Host, serverConfig.Port)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
