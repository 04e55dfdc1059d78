package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command of rentald.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rentald",
		Short: "Rental API server",
		Long: `rentald serves account, session and role management for the
property management platform.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedRolesCmd())

	return cmd
}
