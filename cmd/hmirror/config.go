package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/hashmirror"
	"github.com/unkn0wn-root/hashmirror/clientpool"
	zaplog "github.com/unkn0wn-root/hashmirror/log/zap"
)

// initConfig loads .env files and maps HMIRROR_* variables onto flag names.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("hmirror")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupConnFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("host", "localhost", "redis host")
	f.Int("port", 6379, "redis port")
	f.StringP("namespace", "n", "", "remote hash holding the cache (required)")
	f.Bool("lazy", false, "skip the eager load; fill the mirror on reads")
	f.String("username", "", "redis ACL username")
	f.String("password", "", "redis password")
	f.Int("db", 0, "redis database")
	f.Duration("timeout", 5*time.Second, "per-command timeout")
	f.String("log-level", "warn", "debug, info, warn or error")
}

func bindFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

func newLogger() (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func cacheOptions(l *zap.Logger) hashmirror.Options[any] {
	timeout := viper.GetDuration("timeout")
	return hashmirror.Options[any]{
		Namespace: viper.GetString("namespace"),
		Host:      viper.GetString("host"),
		Port:      viper.GetInt("port"),
		Lazy:      viper.GetBool("lazy"),
		Store: clientpool.StoreOptions{
			Username:     viper.GetString("username"),
			Password:     viper.GetString("password"),
			DB:           viper.GetInt("db"),
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		Logger: zaplog.New(l),
	}
}
