package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/obinexus/blueshare/internal/apiserver"
	"github.com/obinexus/blueshare/internal/telemetry"
	"github.com/obinexus/blueshare/pkg/config"
)

func serveCmd() *cobra.Command {
	var addr, healthLog string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the monitoring HTTP API (session status, /metrics, vote stream)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.AppConfig.API.ListenAddr
			}
			if addr == "" {
				addr = ":8080"
			}
			if healthLog == "" {
				healthLog = config.AppConfig.Logging.HealthFile
			}
			if healthLog == "" {
				healthLog = "./data/blueshare-health.json"
			}

			health, err := telemetry.NewHealthLogger(healthLog)
			if err != nil {
				return err
			}
			defer health.Close()

			srv := apiserver.New(addr, health)
			logrus.WithFields(logrus.Fields{"addr": addr, "health_log": healthLog}).Info("monitoring API listening")
			return srv.Start()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config api.listen_addr")
	cmd.Flags().StringVar(&healthLog, "health-log", "", "path to the JSON health event log, overrides config logging.health_file")
	return cmd
}
