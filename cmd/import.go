package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
)

var importXPCmd = &cobra.Command{
	Use:   "import-xp <xp.json>",
	Short: "Import honor from the original bot's xp.json",
	Long: `Reads {"<user id>": xp} and stores each value as the player's honor.
With --merge a player keeps whichever of the two values is higher.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		merge, _ := cmd.Flags().GetBool("merge")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		xp, err := persistence.ReadLegacyXP(f)
		f.Close()
		if err != nil {
			return err
		}

		players := make([]string, 0, len(xp))
		for p := range xp {
			players = append(players, p)
		}
		sort.Strings(players)

		return withEngine(cmd, func(ctx context.Context, e *game.Engine) error {
			bar := progressbar.Default(int64(len(players)), "Importing honor")
			changed := 0
			for _, p := range players {
				if merge {
					_, raised, err := e.RaiseHonor(ctx, p, xp[p])
					if err != nil {
						return err
					}
					if raised {
						changed++
					}
				} else {
					if _, err := e.SetHonor(ctx, p, xp[p]); err != nil {
						return err
					}
					changed++
				}
				bar.Add(1)
			}
			fmt.Printf("\nImported %d players (%d updated).\n", len(players), changed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importXPCmd)
	importXPCmd.Flags().Bool("merge", false, "keep the higher of the stored and imported honor")
}
