package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	botToken  string
	botChatID string
	botOwners []string
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage chat bot configuration",
}

var telegramBotCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Register the Telegram bot and the game chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		if botToken == "" {
			fmt.Println("---")
			fmt.Println("Open Telegram and talk to @BotFather.")
			fmt.Println("Send /newbot and follow the prompts; BotFather replies with an HTTP API token.")
			fmt.Println("Disable privacy mode in BotFather so the bot can read the group's commands.")
			fmt.Println("---")
			botToken = prompt(scanner, "token: ")
		}
		if botChatID == "" {
			fmt.Println("---")
			fmt.Println("Add the bot to the group and send any message there.")
			fmt.Println("Open https://api.telegram.org/bot<TOKEN>/getUpdates and copy chat.id (usually negative).")
			fmt.Println("---")
			botChatID = prompt(scanner, "chat_id: ")
		}

		if botToken == "" {
			return fmt.Errorf("a bot token is required")
		}
		chatID, err := strconv.ParseInt(botChatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q: %w", botChatID, err)
		}

		viper.Set("telegram_token", botToken)
		viper.Set("telegram_chat_id", chatID)
		if len(botOwners) > 0 {
			viper.Set("owner_ids", botOwners)
		}
		if err := saveConfig(); err != nil {
			return fmt.Errorf("error saving configuration: %w", err)
		}
		fmt.Println("Telegram bot configuration saved.")
		return nil
	},
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// saveConfig writes the current settings to the loaded config file, creating
// $HOME/.davis.yaml when there is none.
func saveConfig() error {
	if err := viper.WriteConfig(); err == nil {
		return nil
	}
	if err := viper.SafeWriteConfig(); err == nil {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(home, ".davis.yaml"))
}

func init() {
	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(telegramBotCmd)

	telegramBotCmd.Flags().StringVarP(&botToken, "token", "t", "", "Telegram bot API token")
	telegramBotCmd.Flags().StringVarP(&botChatID, "chat_id", "c", "", "Telegram group chat id")
	telegramBotCmd.Flags().StringSliceVarP(&botOwners, "owner", "o", nil, "Telegram user id allowed to run admin commands (repeatable)")
}
