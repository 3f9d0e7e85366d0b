package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingTimeout int

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity and session validity",
	Long:  `Perform one authenticated round-trip against the endpoint and report how it went.`,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)

	pingCmd.Flags().IntVarP(&pingTimeout, "timeout", "t", 0, "Request timeout in seconds (overrides config)")
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, client, err := buildClient()
	if err != nil {
		return err
	}

	if pingTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(pingTimeout)*time.Second)
		defer cancel()
	}

	res, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	fmt.Printf("ok: transport=%s request_id=%s elapsed=%s\n",
		res.Meta.Transport, res.Meta.RequestID, res.Meta.Elapsed.Round(time.Millisecond))

	return nil
}
