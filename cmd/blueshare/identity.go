package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obinexus/blueshare/core"
)

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "identity", Short: "create and inspect ZeroID/ZeroKey identity artifacts"}

	var zidPath, keyPath, secret, algorithmTag string

	create := &cobra.Command{
		Use:   "create",
		Short: "create a new ZeroID and ZeroKey, saving each to a distinct artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if zidPath == keyPath {
				return fmt.Errorf("identity create: --zid and --key must point to distinct files")
			}
			zctx, err := core.NewZeroContext(algorithmTag)
			if err != nil {
				return err
			}
			defer zctx.Destroy()

			zid, err := core.CreateZeroID(zctx, []byte(secret))
			if err != nil {
				return err
			}
			key := core.CreateZeroKey(zctx, zid)

			if err := core.SaveZeroID(zid, zidPath); err != nil {
				return err
			}
			if err := core.SaveZeroKey(key, zidPath, keyPath); err != nil {
				return err
			}
			fmt.Printf("zero_id hash=%x saved to %s\n", zid.Hash[:8], zidPath)
			fmt.Printf("zero_key hash=%x saved to %s (expires %s)\n", key.Hash[:8], keyPath, key.ExpiresAt.Format("2006-01-02"))
			return nil
		},
	}
	create.Flags().StringVar(&zidPath, "zid", "zero_id.bin", "path to write the ZeroID artifact")
	create.Flags().StringVar(&keyPath, "key", "zero_key.bin", "path to write the ZeroKey artifact")
	create.Flags().StringVar(&secret, "secret", "", "local secret used to derive the ZeroID (required)")
	create.Flags().StringVar(&algorithmTag, "algorithm-tag", "blueshare-v1", "algorithm tag recorded on the ZeroContext")
	create.MarkFlagRequired("secret")

	show := &cobra.Command{
		Use:   "show",
		Short: "load and print a ZeroID artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			zid, err := core.LoadZeroID(zidPath)
			if err != nil {
				return err
			}
			fmt.Printf("version=%d hash=%x created_at=%s\n", zid.Version, zid.Hash[:], zid.CreatedAt)
			return nil
		},
	}
	show.Flags().StringVar(&zidPath, "zid", "zero_id.bin", "path to read the ZeroID artifact from")

	cmd.AddCommand(create, show)
	return cmd
}
