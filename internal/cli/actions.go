package cli

import (
	"fmt"

	"github.com/lu-zhengda/mailsweep/internal/app"
	"github.com/lu-zhengda/mailsweep/internal/provider"
	"github.com/spf13/cobra"
)

// targetFlags select the subject of a bulk action: exactly one of --sender
// or --domain.
type targetFlags struct {
	sender string
	domain string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sender, "sender", "", "sender email address to act on")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain to act on (all senders at it)")
}

func (f *targetFlags) validate() error {
	if (f.sender == "") == (f.domain == "") {
		return fmt.Errorf("exactly one of --sender or --domain is required")
	}
	return nil
}

// scopedQuery narrows the scan to just the target's mail so the action never
// touches messages the user did not ask about.
func (f *targetFlags) scopedQuery() string {
	if f.sender != "" {
		return "from:" + f.sender
	}
	return "from:@" + f.domain
}

func newTrashCmd() *cobra.Command {
	var flags scanFlags
	var target targetFlags

	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Move all mail from a sender or domain to trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulkAction(cmd, flags, target, "trash",
				func(svc *app.ActionService, accountID string) (int, error) {
					if target.sender != "" {
						return svc.TrashSender(cmd.Context(), accountID, target.sender)
					}
					return svc.TrashDomain(cmd.Context(), accountID, target.domain)
				})
		},
	}

	flags.register(cmd)
	target.register(cmd)
	return cmd
}

func newSpamCmd() *cobra.Command {
	var flags scanFlags
	var target targetFlags

	cmd := &cobra.Command{
		Use:   "spam",
		Short: "Mark all mail from a sender or domain as spam",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulkAction(cmd, flags, target, "spam",
				func(svc *app.ActionService, accountID string) (int, error) {
					if target.sender != "" {
						return svc.SpamSender(cmd.Context(), accountID, target.sender)
					}
					return svc.SpamDomain(cmd.Context(), accountID, target.domain)
				})
		},
	}

	flags.register(cmd)
	target.register(cmd)
	return cmd
}

// runBulkAction scans only the target's mail, then applies op to every
// message id the scan collected.
func runBulkAction(cmd *cobra.Command, flags scanFlags, target targetFlags, name string, op func(*app.ActionService, string) (int, error)) error {
	if err := target.validate(); err != nil {
		return err
	}

	env, err := newScanEnv(cmd, flags.account)
	if err != nil {
		return err
	}
	defer env.Close()

	flags.query = target.scopedQuery()
	if _, err := runScan(cmd, env, flags); err != nil {
		return err
	}

	svc := app.NewActionService(env.manager, env.aggregator)
	n, err := op(svc, env.accountID)
	if err != nil {
		return err
	}

	if jsonFlag {
		return printJSON(jsonAction{
			OK:        true,
			Action:    name,
			AccountID: env.accountID,
			Sender:    target.sender,
			Domain:    target.domain,
			Affected:  n,
		})
	}

	if n == 0 {
		fmt.Println("No matching messages found.")
		return nil
	}
	fmt.Printf("Applied %s to %d messages.\n", name, n)
	return nil
}

func newFilterCmd() *cobra.Command {
	var accountFlag, action string
	var target targetFlags

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Create a server-side filter for future mail from a sender or domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := target.validate(); err != nil {
				return err
			}

			filterAction := provider.FilterAction(action)
			switch filterAction {
			case provider.FilterActionTrash, provider.FilterActionSpam,
				provider.FilterActionArchive, provider.FilterActionRead:
			default:
				return fmt.Errorf("unknown filter action %q (use trash, spam, archive, or read)", action)
			}

			env, err := newScanEnv(cmd, accountFlag)
			if err != nil {
				return err
			}
			defer env.Close()

			svc := app.NewActionService(env.manager, env.aggregator)
			var filterID string
			if target.sender != "" {
				filterID, err = svc.CreateSenderFilter(cmd.Context(), env.accountID, target.sender, filterAction)
			} else {
				filterID, err = svc.CreateDomainFilter(cmd.Context(), env.accountID, target.domain, filterAction)
			}
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(jsonAction{
					OK:        true,
					Action:    "filter",
					AccountID: env.accountID,
					Sender:    target.sender,
					Domain:    target.domain,
					FilterID:  filterID,
				})
			}

			fmt.Printf("Filter created: %s\n", filterID)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	cmd.Flags().StringVar(&action, "action", "trash", "filter action (trash, spam, archive, read)")
	target.register(cmd)
	return cmd
}
