package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordwisp/wordwisp/internal/config"
	"github.com/wordwisp/wordwisp/internal/logger"
	"github.com/wordwisp/wordwisp/internal/ollama"
	"github.com/wordwisp/wordwisp/internal/predictor"
	"github.com/wordwisp/wordwisp/internal/predictor/activator"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var logLevel string
	var logFile string

	cmd := &cobra.Command{
		Use:           "wordwisp",
		Short:         "Word and sentence prediction engine for AAC text entry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logFile, logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "wordwisp.toml", "path to the TOML configuration")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "mirror logs to this file")

	cmd.AddCommand(newPredictCmd(&configPath))
	cmd.AddCommand(newLearnCmd(&configPath))
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// engine bundles everything a command needs to predict or learn.
type engine struct {
	cfg       *config.Config
	tracker   *tracker.Tracker
	client    ollama.Client
	activator *activator.Activator
	close     func() error
}

func buildEngine(configPath string) (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(cfg.Predictors) == 0 {
		return nil, fmt.Errorf("no predictors configured in %s", configPath)
	}

	httpClient := ollama.NewHTTPClient(cfg.Common.OllamaModel, cfg.Common.EmbeddingModel)
	httpClient.BaseURL = cfg.Common.OllamaURL
	client, err := ollama.NewCachingClient(httpClient, 512)
	if err != nil {
		return nil, err
	}

	tr := tracker.New()
	registry, closeAll, err := predictor.Assemble(cfg, predictor.Deps{
		Tracker: tr,
		Client:  client,
		Log:     logger.New("predictor"),
	})
	if err != nil {
		return nil, err
	}

	act := activator.New(registry, tr, logger.New("activator"),
		cfg.Common.MaxPartialPredictionSize, cfg.Common.PredictionSizeMultiplier)

	return &engine{cfg: cfg, tracker: tr, client: client, activator: act, close: closeAll}, nil
}
