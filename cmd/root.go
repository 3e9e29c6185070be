package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "davis",
	Short: "Davis Defense progression and event engine",
	Long: `Runs the Davis Defense chat game: honor, ranks, training, patrols,
crafting and the attack and world boss events contested by the whole chat.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.davis.yaml)")
	rootCmd.PersistentFlags().String("data_dir", "", "directory holding the player tables and rules.yaml")
	rootCmd.PersistentFlags().String("log_level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("store.dir", rootCmd.PersistentFlags().Lookup("data_dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log_level"))

	viper.SetDefault("store.driver", persistence.DriverFile)
	viper.SetDefault("store.dir", "./data")
	viper.SetDefault("feed_addr", "")
	viper.SetDefault("games_enabled", true)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".davis")
	}

	viper.SetEnvPrefix("DAVIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine, everything has a default.
	_ = viper.ReadInConfig()
}

// newLogger builds a zap logger; outputs replace stderr when given.
func newLogger(level, format string, outputs ...string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	if len(outputs) > 0 {
		zapCfg.OutputPaths = outputs
		zapCfg.ErrorOutputPaths = outputs
	}
	return zapCfg.Build()
}

// logger builds the process logger from the log.* keys.
func logger() (*zap.Logger, error) {
	log, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// loadRules reads rules_file when set, else rules.yaml in the data directory,
// else the embedded defaults.
func loadRules() (*rules.Rules, error) {
	if path := viper.GetString("rules_file"); path != "" {
		return rules.LoadFile(path)
	}
	return rules.NewLoader([]string{viper.GetString("store.dir")}).Load()
}

func openStore(ctx context.Context) (persistence.Store, error) {
	store, err := persistence.Open(ctx, persistence.Config{
		Driver: viper.GetString("store.driver"),
		Dir:    viper.GetString("store.dir"),
		DSN:    viper.GetString("store.dsn"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

// openEngine loads rules and the store and builds the game engine. The
// returned close func releases the store.
func openEngine(ctx context.Context, log *zap.Logger, pub event.Publisher) (*game.Engine, func(), error) {
	r, err := loadRules()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine, err := game.New(ctx, game.Deps{
		Rules:        r,
		Store:        store,
		Publisher:    pub,
		Log:          log,
		GamesEnabled: viper.GetBool("games_enabled"),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return engine, func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}, nil
}
