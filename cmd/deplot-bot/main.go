package main

import (
	"log"

	corecmd "github.com/ranggaxyy/deplot-bot/core/cmd"
	"github.com/ranggaxyy/deplot-bot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("deplot-bot: %v", err)
	}
}
