package server

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"panelix-setup/cmd/root"
	"panelix-setup/controllers"
	"panelix-setup/internal/config"
	"panelix-setup/internal/env"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/middleware"
	"panelix-setup/services"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动HTTP状态服务",
	Long:  `Run the local status API: health, system check, migration planning and authenticated updates`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer()
	},
}

// Version is stamped by the build, mirrored from the root binary version.
var Version = ""

func startServer() error {
	env.Daemon = true

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())

	server := services.NewServer(&config.Config, Version)
	controllers.NewAPIController(server).RegisterRoutes(router)

	logger.Infof("status server listening on %s", config.Config.Server.Address)
	return router.Run(config.Config.Server.Address)
}

func init() {
	root.RootCmd.AddCommand(serverCmd)

	serverCmd.Example = `  panelix-setup server`
}
