package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "goguard",
		Short: "Login throttling, role policy and second-factor server",
		Long: `goguard fronts an identity store with per-origin throttling,
per-identity cooldown, an administrative role policy and TOTP second factors.

Run "goguard serve" to start the HTTP server, or use "authorize" and "roles"
to inspect the policy offline.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newAuthorizeCmd())
	root.AddCommand(newRolesCmd())
	return root
}
