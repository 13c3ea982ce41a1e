package main

import (
	"context"
	"log"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/bot"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/config"
	"github.com/mohammaddehghani/TelegBotCardNum/core/buildinfo"
	corecmd "github.com/mohammaddehghani/TelegBotCardNum/core/cmd"
)

func main() {
	log.Printf("cardbook %s", buildinfo.String())
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			app, err := bot.Bootstrap(ctx, cfg.(*config.Config))
			if err != nil {
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
