package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/skillmatrix/internal/extraction"
	"github.com/spigell/skillmatrix/internal/logger"
	"github.com/spigell/skillmatrix/internal/server"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	mode, err := extraction.ParseMode(config.Strategy)
	if err != nil {
		logger.Fatal("parsing strategy", zap.Error(err))
	}

	pipeline, err := newPipeline(ctx, config, mode, logger)
	if err != nil {
		logger.Fatal("preparing strategies", zap.Error(err))
	}

	for _, status := range pipeline.Describe() {
		logger.Info("strategy status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}

	logger.Info("starting the skillmatrix api", zap.String("version", version), zap.String("mode", string(mode)))

	if err := server.New(serverConfig(config.Server), pipeline, logger).Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func serverConfig(cfg *ServerConfig) server.Config {
	if cfg == nil {
		return server.Config{}
	}
	return server.Config{
		Listen:       cfg.Listen,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
}
