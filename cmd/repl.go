package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Play locally in an interactive console",
	Long: `Starts the read-eval-print console against the configured store. Commands
are the chat commands without the leading slash, e.g.

	> train strength
	> craft medkit

The event scheduler runs inside the console, so attacks and world bosses are
announced there too. Logs go to --log_file so they do not tear the screen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		as, _ := cmd.Flags().GetString("as")
		logFile, _ := cmd.Flags().GetString("log_file")

		log, err := newLogger(viper.GetString("log.level"), "json", logFile)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := dispatch.IdentityDirectory{}
		pub := &programPublisher{dir: dir}
		engine, closeStore, err := openEngine(ctx, log, pub)
		if err != nil {
			return err
		}
		defer closeStore()

		// The local player owns the console, so admin commands are allowed.
		owners := append(viper.GetStringSlice("owner_ids"), as)
		disp := dispatch.New(engine, owners, dir, log.Named("dispatch"))

		go func() {
			if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("scheduler stopped", zap.Error(err))
			}
		}()

		if err := RunTUI(ctx, engine, disp, dispatch.Caller{ID: as, Name: as}, pub); err != nil {
			return fmt.Errorf("console failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().String("as", "local", "player id to play as")
	replCmd.Flags().String("log_file", "davis-repl.log", "file receiving logs while the console runs")
}
