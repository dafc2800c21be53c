package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	corebootstrap "github.com/m3rciful/lingobot/core/bootstrap"
	corecmd "github.com/m3rciful/lingobot/core/cmd"
	"github.com/m3rciful/lingobot/internal/bot"
	"github.com/m3rciful/lingobot/internal/config"
)

func main() {
	// Missing .env is fine, the config file alone is enough.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := corebootstrap.Run(corebootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.DB), nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
