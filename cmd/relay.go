package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/logger"
	"github.com/spigell/cv-search/internal/relay"
)

const shutdownTimeout = 10 * time.Second

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve /api/real-search and /api/cv-metadata in front of the CV search service",
	Run: func(_ *cobra.Command, _ []string) {
		runRelay()
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().String("listen", ":8080", "address to listen on")
	viper.BindPFlag("relay.listen", relayCmd.Flags().Lookup("listen"))
}

func runRelay() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if strings.TrimSpace(config.CVSearch.URL) == "" {
		logger.Fatal("cv search url is required", zap.String("hint", "set cvsearch.url or CV_SEARCH_CVSEARCH_URL"))
	}

	server := &http.Server{
		Addr:              config.Relay.Listen,
		Handler:           relay.New(logger, config.CVSearch.URL, resolveSession(config, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("relay shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting the relay", zap.String("listen", server.Addr), zap.String("target", config.CVSearch.URL))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("relay server", zap.Error(err))
	}

	logger.Info("relay stopped")
}
