package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/dappwallet/internal/control"
)

var (
	waitTimeout time.Duration

	stakeReq control.StakeRequest
	nearReq  control.NearCallRequest
	nearArgs string
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Create a stake account and delegate it through the wallet extension",
	Run: func(cmd *cobra.Command, args []string) {
		runFlow(func(ctx context.Context, app *control.App) (any, error) {
			return app.StakeSOL(ctx, stakeReq)
		})
	},
}

var nearCallCmd = &cobra.Command{
	Use:   "near-call",
	Short: "Submit a NEAR function call through the wallet extension",
	Run: func(cmd *cobra.Command, args []string) {
		if nearArgs != "" {
			nearReq.Args = json.RawMessage(nearArgs)
		}
		runFlow(func(ctx context.Context, app *control.App) (any, error) {
			return app.CallNear(ctx, nearReq)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{stakeCmd, nearCallCmd} {
		cmd.Flags().DurationVar(&waitTimeout, "wait", 2*time.Minute, "how long to wait for the extension to attach")
		rootCmd.AddCommand(cmd)
	}

	stakeCmd.Flags().StringVar(&stakeReq.Amount, "amount", "", "stake amount in SOL (default from config)")
	stakeCmd.Flags().StringVar(&stakeReq.Validator, "validator", "", "vote account to delegate to (default from config)")
	stakeCmd.Flags().StringVar(&stakeReq.Seed, "seed", "", "stake account seed (default: generated)")
	stakeCmd.Flags().BoolVar(&stakeReq.Confirm, "confirm", true, "wait for the transaction to confirm")

	nearCallCmd.Flags().StringVar(&nearReq.Receiver, "receiver", "", "receiver account (default from config)")
	nearCallCmd.Flags().StringVar(&nearReq.Method, "method", "", "method name (default from config)")
	nearCallCmd.Flags().StringVar(&nearArgs, "args", "", "JSON arguments")
	nearCallCmd.Flags().Uint64Var(&nearReq.Gas, "gas", 0, "attached gas (default from config)")
	nearCallCmd.Flags().StringVar(&nearReq.Deposit, "deposit", "", "attached deposit in yoctoNEAR (default from config)")
}

// runFlow hosts the relay, waits for the extension and runs one flow.
func runFlow(flow func(ctx context.Context, app *control.App) (any, error)) {
	cfg := setup()

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize dappwallet", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start dappwallet", "error", err)
		os.Exit(1)
	}

	result, err := runWithExtension(ctx, app, flow)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if stopErr := app.Stop(shutdownCtx); stopErr != nil {
		slog.Warn("Error during shutdown", "error", stopErr)
	}

	if err != nil {
		slog.Error("Flow failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func runWithExtension(ctx context.Context, app *control.App, flow func(context.Context, *control.App) (any, error)) (any, error) {
	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	if err := app.WaitForExtension(waitCtx); err != nil {
		return nil, err
	}
	return flow(ctx, app)
}
