package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskboard/config"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Task and user REST API backed by Firestore",
	Long: `taskboard serves the /tasks and /users REST API.

Every user keeps a pendingTasks list of the open tasks assigned to it;
the API keeps that list in step with task writes, and the reconcile
command rebuilds it from the Tasks collection.`,
	SilenceUsage: true,
}

func main() {
	config.LoadDotenv()

	rootCmd.PersistentFlags().String("env", "", "environment: local, dev or prod (overrides ENV)")
	_ = v.BindPFlag("ENV", rootCmd.PersistentFlags().Lookup("env"))

	rootCmd.AddCommand(serveCmd, reconcileCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
