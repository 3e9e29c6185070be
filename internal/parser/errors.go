package parser

import (
	"fmt"
	"strings"
)

// Usage lists the syntax of every command by keyword.
var Usage = map[string]string{
	"train":    "train <strength|agility|intelligence|endurance>",
	"patrol":   "patrol",
	"scavenge": "scavenge",
	"craft":    "craft <recipe>",
	"use":      "use <item>",
	"defend":   "defend",
	"hit":      "hit",
	"salute":   "salute @player",
	"honor":    "honor [@player]",
	"stats":    "stats [@player]",
	"recipes":  "recipes",
	"top":      "top [count]",
	"events":   "events",
	"help":     "help [command]",
	"ping":     "ping",
	"sethonor": "sethonor @player <amount>",
	"addhonor": "addhonor @player <amount>",
	"setskill": "setskill @player <skill> <level>",
	"force":    "force <attack|boss>",
	"games":    "games <on|off>",
	"grant":    "grant @player <role>",
	"revoke":   "revoke @player <role>",
}

var aliases = map[string]string{
	"loot":        "scavenge",
	"strike":      "hit",
	"xp":          "honor",
	"rank":        "honor",
	"profile":     "stats",
	"leaderboard": "top",
	"status":      "events",
	"setxp":       "sethonor",
	"addxp":       "addhonor",
}

// Keyword resolves an alias to its command keyword.
func Keyword(word string) string {
	word = strings.ToLower(word)
	if k, ok := aliases[word]; ok {
		return k
	}
	return word
}

// MapError turns a parse failure into a usage hint for the command typed.
func MapError(input string, err error) error {
	parts := strings.Fields(Normalize(input))
	if len(parts) == 0 {
		return fmt.Errorf("I wasn't able to understand your command")
	}
	if usage, ok := Usage[Keyword(parts[0])]; ok {
		return fmt.Errorf("usage: %s", usage)
	}
	return fmt.Errorf("unknown command %q, try help", parts[0])
}
