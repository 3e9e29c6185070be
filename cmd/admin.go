package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Edit player records offline",
	Long: `Administrative edits applied directly to the store. Stop the server first
when using the file store; the running process keeps its own copy in memory.`,
}

// withEngine opens the engine with a logging publisher, runs fn and closes the store.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *game.Engine) error) error {
	log, err := logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	engine, closeStore, err := openEngine(ctx, log, nil)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, engine)
}

func printHonor(v game.HonorView) {
	fmt.Printf("%s: %d honor, rank %s\n", v.Player, v.Honor, v.Rank)
}

var setHonorCmd = &cobra.Command{
	Use:   "sethonor <player> <honor>",
	Short: "Set a player's honor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid honor %q", args[1])
		}
		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			v, err := e.SetHonor(ctx, args[0], n)
			if err != nil {
				return err
			}
			printHonor(v)
			return nil
		})
	},
}

var addHonorCmd = &cobra.Command{
	Use:   "addhonor <player> <delta>",
	Short: "Add to (or subtract from) a player's honor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q", args[1])
		}
		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			v, err := e.AddHonor(ctx, args[0], n)
			if err != nil {
				return err
			}
			printHonor(v)
			return nil
		})
	},
}

var setSkillCmd = &cobra.Command{
	Use:   "setskill <player> <skill> <level>",
	Short: "Set one skill level",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid level %q", args[2])
		}
		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			res, err := e.SetSkill(ctx, args[0], args[1], n)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s is now %d\n", args[0], res.Skill, res.Level)
			return nil
		})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <player> <role>",
	Short: "Give a player a role in the local role registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			v, err := e.Grant(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printHonor(v)
			return nil
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <player> <role>",
	Short: "Remove a role from a player in the local role registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			v, err := e.Revoke(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printHonor(v)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(setHonorCmd, addHonorCmd, setSkillCmd, grantCmd, revokeCmd)
}
