package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/obinexus/blueshare/pkg/config"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.WithError(err).Warn("config load failed, continuing with defaults")
		cfg = &config.AppConfig
	}

	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(lvl)
	}
	if cfg.Logging.File != "" {
		if f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			logrus.SetOutput(f)
		} else {
			logrus.WithError(err).Warn("could not open log file, logging to stderr")
		}
	}

	root := &cobra.Command{Use: "blueshare", Short: "decentralized pay-as-you-go internet sharing node"}
	root.AddCommand(identityCmd())
	root.AddCommand(consensusCmd())
	root.AddCommand(sessionCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
