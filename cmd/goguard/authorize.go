package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/MrEthical07/goGuard/policy"
	"github.com/spf13/cobra"
)

// errDenied makes a denied decision exit non-zero.
var errDenied = errors.New("denied")

func newAuthorizeCmd() *cobra.Command {
	var (
		actor  string
		action string
		target string
		self   bool
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Evaluate the identity-management policy for one request",
		Example: `  goguard authorize --actor admin --action delete --target owner
  goguard authorize --actor owner --action delete --target owner --self`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actorRole, err := policy.ParseRole(actor)
			if err != nil {
				return fmt.Errorf("--actor %q: %w", actor, err)
			}
			act, err := policy.ParseAction(action)
			if err != nil {
				return fmt.Errorf("--action %q: %w", action, err)
			}
			var targetRole policy.Role
			if target != "" {
				if targetRole, err = policy.ParseRole(target); err != nil {
					return fmt.Errorf("--target %q: %w", target, err)
				}
			}

			d := policy.Authorize(actorRole, act, targetRole, self)
			out := cmd.OutOrStdout()
			if d.Permit {
				fmt.Fprintf(out, "permit: %s may %s %s\n", actorRole, act, describeTarget(targetRole))
				return nil
			}
			fmt.Fprintf(out, "deny: %s\n", d.Reason)
			return errDenied
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "role of the caller")
	cmd.Flags().StringVar(&action, "action", "", "list, create, update, delete or reset_password")
	cmd.Flags().StringVar(&target, "target", "", "role held by the target identity")
	cmd.Flags().BoolVar(&self, "self", false, "the target is the caller")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func describeTarget(r policy.Role) string {
	if r == policy.RoleUnknown {
		return "identities"
	}
	return "a " + r.String()
}

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Print the role hierarchy, highest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tRANK\tADMINISTRATOR")
			for _, r := range policy.Roles() {
				fmt.Fprintf(w, "%s\t%d\t%t\n", r, r.Rank(), r.IsAdministrator())
			}
			return w.Flush()
		},
	}
}
