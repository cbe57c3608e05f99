package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mediascan/console/guard"
	"github.com/mediascan/console/session"
	"github.com/mediascan/console/users"
)

var errAdminRequired = errors.New("this command requires the admin role")

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
	}
	cmd.AddCommand(newUsersListCmd(opts), newUsersUpdateCmd(opts), newUsersDeleteCmd(opts))
	return cmd
}

// requireAdmin restores the session and applies the same guard the
// dashboard uses for /admin routes.
func (a *app) requireAdmin(cmd *cobra.Command) (session.Snapshot, error) {
	snap, err := a.initialize(cmd.Context())
	if err != nil {
		return snap, err
	}
	switch guard.Decide(snap, guard.Role(users.RoleAdmin)).Action {
	case guard.Render:
		return snap, nil
	case guard.RedirectHome:
		return snap, errAdminRequired
	default:
		return snap, errNotSignedIn
	}
}

func newUsersListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			snap, err := a.requireAdmin(cmd)
			if err != nil {
				return err
			}
			list, err := a.client.ListUsers(cmd.Context(), snap.Token())
			if err != nil {
				return errors.New(session.MessageFor(err, "could not list users"))
			}
			sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s  %-32s  %-8s  %s\n", "ID", "EMAIL", "ROLE", "ACTIVE")
			for _, u := range list {
				fmt.Fprintf(out, "%-6d  %-32s  %-8s  %t\n", u.ID, u.Email, u.Role, u.IsActive)
			}
			return nil
		}),
	}
}

func newUsersUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		role   string
		active string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a user's role or active flag",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			var update users.Update
			if role != "" {
				r, err := users.ParseRole(role)
				if err != nil {
					return err
				}
				update.Role = &r
			}
			if active != "" {
				b, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("invalid --active value %q", active)
				}
				update.IsActive = &b
			}
			if update.Role == nil && update.IsActive == nil {
				return errors.New("nothing to update; pass --role or --active")
			}

			snap, err := a.requireAdmin(cmd)
			if err != nil {
				return err
			}
			updated, err := a.client.UpdateUser(cmd.Context(), snap.Token(), userID, update)
			if err != nil {
				return errors.New(session.MessageFor(err, "could not update user"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: role=%s active=%t\n", updated.Email, updated.Role, updated.IsActive)
			return nil
		}),
	}
	cmd.Flags().StringVar(&role, "role", "", "New role (admin, user, viewer)")
	cmd.Flags().StringVar(&active, "active", "", "Set the active flag (true/false)")
	return cmd
}

func newUsersDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			snap, err := a.requireAdmin(cmd)
			if err != nil {
				return err
			}
			if err := a.client.DeleteUser(cmd.Context(), snap.Token(), userID); err != nil {
				return errors.New(session.MessageFor(err, "could not delete user"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", userID)
			return nil
		}),
	}
}

func parseUserID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}
