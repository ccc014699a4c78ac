package main

import (
	"github.com/spf13/cobra"

	"captiond/internal/config"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	resolveClient := func() (*apiClient, error) {
		addr := addrFlag
		if addr == "" {
			cfg, _, _, err := config.Load(configFlag)
			if err != nil {
				return nil, err
			}
			addr = cfg.APIBind
		}
		return newAPIClient(addr), nil
	}

	rootCmd := &cobra.Command{
		Use:           "captionctl",
		Short:         "Control client for the captiond subtitle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Address of the captiond API (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(resolveClient))
	rootCmd.AddCommand(newJobsCommand(resolveClient))

	return rootCmd
}
