package main

import (
	"context"
	"fmt"
	"os"

	"github.com/n9te9/go-graphql-rest-gateway/server"
	"github.com/spf13/cobra"
)

var version = "v0.0.0-rc"

var configPath string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of REST Gateway",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "REST Gateway", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Init(configPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", configPath)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:       "serve [posts|comments|gateway ...]",
	Short:     "Start the services and the gateway",
	Long:      "Start the given components. Without arguments the posts service, the comments service and the gateway all run in this process.",
	ValidArgs: []string{"posts", "comments", "gateway"},
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := server.ParseComponents(args)
		if err != nil {
			return err
		}

		settings := server.DefaultSettings()
		if _, statErr := os.Stat(configPath); statErr == nil || cmd.Flags().Changed("config") {
			settings, err = server.LoadSettings(configPath)
			if err != nil {
				return err
			}
		}

		return server.Run(cmd.Context(), settings, components)
	},
}

func main() {
	rootCmd := cobra.Command{
		Use:          "rest-gateway",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", server.DefaultConfigPath, "path to the settings file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
