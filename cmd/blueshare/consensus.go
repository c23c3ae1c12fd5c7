package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/obinexus/blueshare/core"
	"github.com/obinexus/blueshare/internal/demoadapters"
)

func consensusCmd() *cobra.Command {
	var deviceCount int
	var timeoutMS int

	cmd := &cobra.Command{
		Use:   "consensus",
		Short: "simulate an NSIGII consensus vote round against demo devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ble := &demoadapters.BLE{}
			consensus := core.NewConsensus(ble, time.Duration(timeoutMS)*time.Millisecond, nil, nil)

			ids := make([]string, deviceCount)
			for i := range ids {
				ids[i] = fmt.Sprintf("demo-device-%d", i+1)
			}

			votes, result := consensus.Collect(context.Background(), ids)
			for id, v := range votes {
				fmt.Printf("%s -> %s\n", id, v.State)
			}
			fmt.Printf("result: %s\n", result)
			return nil
		},
	}
	cmd.Flags().IntVar(&deviceCount, "devices", 4, "number of demo candidate devices")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", int(core.DefaultVoteTimeout.Milliseconds()), "per-device vote timeout in milliseconds")
	return cmd
}
