package main

import (
	"fmt"
	"os"

	"github.com/m3rciful/skinshop/core/cmd"
	"github.com/m3rciful/skinshop/shop/app"
)

func main() {
	if err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
