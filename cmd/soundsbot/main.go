package main

import (
	"fmt"
	"log"

	"github.com/kbmedia/soundsbot/core/bootstrap"
	corecmd "github.com/kbmedia/soundsbot/core/cmd"
	"github.com/kbmedia/soundsbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
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
			return bot.NewApp(cfg, res.DB)
		},
	})
	if err != nil {
		log.Fatalf("soundsbot: %v", err)
	}
}
