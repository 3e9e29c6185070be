package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/feed"
	"github.com/AustinNewburry/DavisDefenseBot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game: event scheduler, Telegram bot and live feed",
	Long: `Starts the event scheduler and, when configured, the Telegram long-poll
worker (telegram_token, telegram_chat_id) and the websocket feed (feed_addr).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pubs := event.Publishers{event.LogPublisher{Log: log.Named("events")}}

		dir := telegram.NewDirectory()
		token := viper.GetString("telegram_token")
		chatID := viper.GetInt64("telegram_chat_id")
		var client *telegram.Client
		if token != "" {
			if chatID == 0 {
				return errors.New("telegram_chat_id must be set when telegram_token is")
			}
			client = telegram.NewClient(token)
			pubs = append(pubs, telegram.NewPublisher(client, chatID, dir, nil))
		}

		var hub *feed.Hub
		if addr := viper.GetString("feed_addr"); addr != "" {
			hub = feed.NewHub(log.Named("feed"))
			pubs = append(pubs, hub)
		}

		engine, closeStore, err := openEngine(ctx, log, pubs)
		if err != nil {
			return err
		}
		defer closeStore()

		disp := dispatch.New(engine, viper.GetStringSlice("owner_ids"), dir, log.Named("dispatch"))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return engine.Run(gctx) })
		if client != nil {
			bot := telegram.NewBot(client, chatID, dir, disp, log.Named("telegram"))
			g.Go(func() error { return bot.Start(gctx) })
		}
		if hub != nil {
			addr := viper.GetString("feed_addr")
			g.Go(func() error { return hub.Serve(gctx, addr) })
		}
		if client == nil && hub == nil {
			fmt.Println("No telegram_token or feed_addr configured; running the scheduler only.")
		}

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("feed_addr", "", "listen address for the websocket feed, e.g. :8080")
	serveCmd.Flags().Bool("games_enabled", true, "start with scheduled events enabled")
	_ = viper.BindPFlag("feed_addr", serveCmd.Flags().Lookup("feed_addr"))
	_ = viper.BindPFlag("games_enabled", serveCmd.Flags().Lookup("games_enabled"))
}
