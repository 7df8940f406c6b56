package main

import (
	"fmt"
	"os"

	_ "panelix-setup/cmd"
	"panelix-setup/cmd/root"
	"panelix-setup/internal/config"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
)

func main() {
	// 检查是否是服务器模式
	isServerMode := len(os.Args) > 1 && os.Args[1] == "server"

	logger.InitLogger(config.Config.Log.Path, config.Config.Log.Level, isServerMode)

	if err := root.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(models.ExitCode(err))
	}
	os.Exit(models.ExitOK)
}
