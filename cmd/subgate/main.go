package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/asagiri/subgate/core/bootstrap"
	"github.com/asagiri/subgate/core/buildinfo"
	"github.com/asagiri/subgate/core/cmd"
	coreconfig "github.com/asagiri/subgate/core/config"
	coredatabase "github.com/asagiri/subgate/core/database"
	coretelegram "github.com/asagiri/subgate/core/telegram"
	"github.com/asagiri/subgate/internal/bot"
)

// appConfig extends the core configuration with the database block.
type appConfig struct {
	coreconfig.Config `yaml:",inline"`
	Database          coredatabase.Config `yaml:"database"`
}

func (c *appConfig) CoreConfig() *coreconfig.Config { return &c.Config }

func loadConfig(path string) (cmd.ConfigCarrier, error) {
	var cfg appConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}
	return &cfg, nil
}

type app struct {
	bot *bot.App
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return a.bot.RunOptions(), nil
}

func bootstrapApp(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*appConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	return &app{bot: bot.New(cfg.CoreConfig(), res.DB)}, nil
}

func main() {
	log.Printf("subgate %s (%s)", buildinfo.Version, buildinfo.Commit)

	if err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadConfig,
		Bootstrap:         bootstrapApp,
	}); err != nil {
		log.Fatalf("subgate: %v", err)
	}
}
