package main

import (
	"os"

	servecmder "github.com/papercomputeco/keepsake/cmd/keepsake/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "keepsakeapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .keepsake/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
