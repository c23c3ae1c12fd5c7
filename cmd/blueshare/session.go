package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/obinexus/blueshare/core"
	"github.com/obinexus/blueshare/internal/apiserver"
	"github.com/obinexus/blueshare/internal/demoadapters"
	"github.com/obinexus/blueshare/internal/telemetry"
	"github.com/obinexus/blueshare/pkg/config"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "drive a demo sharing session end to end"}
	cmd.AddCommand(sessionDemoCmd())
	return cmd
}

func sessionDemoCmd() *cobra.Command {
	var hosts, clients int
	var ssid, password, healthLog, serveAddr string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "admit demo devices, run consensus, and settle payments using in-memory adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			zctx, err := core.NewZeroContext("blueshare-v1")
			if err != nil {
				return err
			}
			defer zctx.Destroy()

			var candidates []core.CandidateDevice
			addCandidate := func(role core.Role, name string, bandwidth float64) error {
				zid, err := core.CreateZeroID(zctx, []byte(name+"-secret"))
				if err != nil {
					return err
				}
				key := core.CreateZeroKey(zctx, zid)
				var challenge core.Challenge
				copy(challenge[:], []byte(name))
				proof := core.CreateProof(zid, challenge)
				candidates = append(candidates, core.CandidateDevice{
					ZID: zid, Key: key, Proof: proof,
					DisplayName: name, Role: role, RSSI: -50, MTU: 512,
					BandwidthMbps: bandwidth,
				})
				return nil
			}

			for i := 0; i < hosts; i++ {
				if err := addCandidate(core.RoleHost, fmt.Sprintf("host-%d", i+1), 20); err != nil {
					return err
				}
			}
			for i := 0; i < clients; i++ {
				if err := addCandidate(core.RoleClient, fmt.Sprintf("client-%d", i+1), 0); err != nil {
					return err
				}
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

			ble := &demoadapters.BLE{}
			wifi := demoadapters.NewWiFi()
			pay := &demoadapters.Payment{}

			consensus := core.NewConsensus(ble, core.DefaultVoteTimeout, nil, nil)
			payments := core.NewPaymentOrchestrator(pay, config.AppConfig.Payment.RateUSDPerBTC, 0, nil, nil)
			compliance := core.NewComplianceAuditor(nil)

			coordinator := core.NewSessionCoordinator(zctx, consensus, core.DefaultCostModel(), payments, compliance, wifi, nil, nil)

			// --serve-addr stands up the monitoring API in this same process so
			// the vote stream and session status it exposes reflect this run,
			// rather than an empty SessionService in an unrelated process.
			var srv *apiserver.Server
			if serveAddr != "" {
				srv = apiserver.New(serveAddr, health)
				consensus.OnVote = srv.Votes.Publish
			}

			sess, err := coordinator.Run(context.Background(), candidates, ssid, password)
			if err != nil {
				if coreErr, ok := err.(*core.Error); ok && coreErr.Code == core.CodeConsensusRejected {
					health.RecordConsensusRejected()
				} else {
					health.LogEvent(logrus.ErrorLevel, err.Error())
				}
				fmt.Printf("session failed: %v\n", err)
				return nil
			}

			var bytesTransferred uint64
			var paymentsSettled int
			for _, d := range sess.Devices {
				bytesTransferred += d.BytesSent + d.BytesReceived
				if d.PaymentState == core.PaymentSettled {
					paymentsSettled++
				}
			}
			health.RecordSessionStarted(len(sess.Devices))
			health.RecordSessionEnded(bytesTransferred, paymentsSettled, sess.PaymentsFailed)

			fmt.Printf("session %s active=%v topology=%s devices=%d total_cost=%s payments_failed=%d\n",
				sess.SessionID, sess.IsActive, sess.Topology, len(sess.Devices), core.FormatUSD(sess.TotalCost), sess.PaymentsFailed)

			if srv != nil {
				srv.Sessions.Record(sess)
				logrus.WithField("addr", serveAddr).Info("monitoring API listening with this session's results")
				return srv.Start()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hosts, "hosts", 1, "number of demo host devices")
	cmd.Flags().IntVar(&clients, "clients", 3, "number of demo client devices")
	cmd.Flags().StringVar(&ssid, "ssid", "blueshare-demo", "access point SSID to request")
	cmd.Flags().StringVar(&password, "password", "blueshare-demo-pass", "access point password to request")
	cmd.Flags().StringVar(&healthLog, "health-log", "", "path to the JSON health event log, overrides config logging.health_file")
	cmd.Flags().StringVar(&serveAddr, "serve-addr", "", "if set, also serve the monitoring API on this address after the demo session completes")
	return cmd
}
