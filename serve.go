package main

import (
	"context"

	"github.com/spf13/cobra"

	"taskboard/config"
	"taskboard/connection"
	"taskboard/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		log := logger.Setup(cfg.Env, cfg.LogFile)
		log.WithField("env", cfg.Env).Info("Application start!")

		fb, err := connection.FBConnection(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		defer fb.Close()

		return connection.StartServer(cfg, fb, log)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	_ = v.BindPFlag("PORT", serveCmd.Flags().Lookup("port"))
}
