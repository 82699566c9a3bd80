package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/dappwallet/internal/chain/near"
	"github.com/vietddude/dappwallet/internal/chain/sol"
	"github.com/vietddude/dappwallet/internal/core/config"
	"github.com/vietddude/dappwallet/internal/infra/rpc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check every configured RPC provider",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHAIN\tPROVIDER\tHEAD\tLATENCY\tERROR")

	for _, p := range cfg.Solana.RPC.Providers {
		client := sol.NewClient(singleProvider("solana", cfg.Solana.RPC, p))
		start := time.Now()
		height, err := client.BlockHeight(ctx)
		writeStatusRow(w, "solana", p.Name, height, time.Since(start), err)
	}

	for _, p := range cfg.Near.RPC.Providers {
		client := near.NewClient(singleProvider("near", cfg.Near.RPC, p))
		start := time.Now()
		var height uint64
		status, err := client.Status(ctx)
		if err == nil {
			height = status.SyncInfo.LatestBlockHeight
		}
		writeStatusRow(w, "near", p.Name, height, time.Since(start), err)
	}

	_ = w.Flush()
}

// singleProvider skips retries so each row reflects one endpoint.
func singleProvider(chain string, rpcCfg config.RPCConfig, p config.ProviderConfig) *rpc.Client {
	return rpc.NewClient(chain, rpc.NewHTTPProvider(p.Name, p.URL, rpcCfg.Timeout)).
		WithRetry(rpc.RetryConfig{MaxAttempts: 1})
}

func writeStatusRow(w *tabwriter.Writer, chain, provider string, height uint64, latency time.Duration, err error) {
	errText := "-"
	if err != nil {
		errText = err.Error()
		height = 0
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", chain, provider, height, latency.Round(time.Millisecond), errText)
}
