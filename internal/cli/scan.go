package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/lu-zhengda/mailsweep/internal/domain"
	"github.com/spf13/cobra"
)

// scanFlags are the knobs shared by every command that runs a scan.
type scanFlags struct {
	account string
	max     int
	query   string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.account, "account", "", "account ID to scan (defaults to config default or first account)")
	cmd.Flags().IntVar(&f.max, "max", 0, "maximum messages to scan (defaults to config)")
	cmd.Flags().StringVar(&f.query, "query", "", "Gmail search query to scope the scan")
}

// runScan executes one account scan with stderr progress and records the
// outcome in scan history.
func runScan(cmd *cobra.Command, env *scanEnv, flags scanFlags) (*agg.AccountAggregation, error) {
	opts := agg.ScanOptions{
		MaxEmails: flags.max,
		Query:     flags.query,
		BatchSize: env.cfg.Scan.BatchSize,
	}
	if opts.MaxEmails == 0 {
		opts.MaxEmails = env.cfg.Scan.MaxEmails
	}
	if opts.Query == "" {
		opts.Query = env.cfg.Scan.Query
	}
	if !jsonFlag {
		opts.Progress = func(processed, total int) {
			fmt.Fprintf(os.Stderr, "\rScanning %s: %d/%d", env.accountID, processed, total)
		}
	}

	started := time.Now().UTC()
	result, err := env.aggregator.AggregateAccount(cmd.Context(), env.accountID, opts)
	if !jsonFlag {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account %s: %w", env.accountID, err)
	}

	record := &domain.ScanRecord{
		AccountID:     env.accountID,
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
		TotalMessages: result.TotalEmails,
		TotalSize:     result.TotalSize,
		SenderCount:   len(result.Senders),
		DomainCount:   len(result.Domains),
	}
	if err := env.db.RecordScan(cmd.Context(), record); err != nil {
		// History is best-effort; the scan itself succeeded.
		fmt.Fprintf(os.Stderr, "Warning: could not record scan history: %v\n", err)
	}
	return result, nil
}

func newScanCmd() *cobra.Command {
	var flags scanFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a mailbox and summarize it by sender and domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newScanEnv(cmd, flags.account)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := runScan(cmd, env, flags)
			if err != nil {
				return err
			}

			senders := env.aggregator.TopSenders(env.accountID, limit)
			domains := env.aggregator.TopDomains(env.accountID, limit)

			if jsonFlag {
				return printJSON(struct {
					AccountID     string       `json:"account_id"`
					Email         string       `json:"email"`
					TotalMessages int          `json:"total_messages"`
					TotalSize     int64        `json:"total_size"`
					Senders       []jsonSender `json:"senders"`
					Domains       []jsonDomain `json:"domains"`
				}{
					AccountID:     result.AccountID,
					Email:         result.EmailAddress,
					TotalMessages: result.TotalEmails,
					TotalSize:     result.TotalSize,
					Senders:       toJSONSenders(senders),
					Domains:       toJSONDomains(domains),
				})
			}

			fmt.Printf("Scanned %d messages (%s) for %s\n\n",
				result.TotalEmails, humanSize(result.TotalSize), result.EmailAddress)
			fmt.Println("Top senders:")
			printSenderTable(senders)
			fmt.Println("\nTop domains:")
			printDomainTable(domains)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 10, "number of senders and domains to show")
	return cmd
}

func newSendersCmd() *cobra.Command {
	var flags scanFlags
	var limit int
	var age, search string

	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Scan and list senders ranked by message count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateAge(age); err != nil {
				return err
			}

			env, err := newScanEnv(cmd, flags.account)
			if err != nil {
				return err
			}
			defer env.Close()

			if _, err := runScan(cmd, env, flags); err != nil {
				return err
			}

			senders := env.aggregator.TopSenders(env.accountID, 0)
			senders = filterSenders(senders, age, search)
			if limit > 0 && len(senders) > limit {
				senders = senders[:limit]
			}

			if jsonFlag {
				return printJSON(toJSONSenders(senders))
			}
			printSenderTable(senders)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 25, "number of senders to show (0 for all)")
	cmd.Flags().StringVar(&age, "age", "", "only senders with mail in this age bucket (today, week, month, 3months, 6months, year, older)")
	cmd.Flags().StringVar(&search, "search", "", "substring filter on sender name, email, or domain")
	return cmd
}

func newDomainsCmd() *cobra.Command {
	var flags scanFlags
	var limit int
	var age, search string

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Scan and list domains ranked by message count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateAge(age); err != nil {
				return err
			}

			env, err := newScanEnv(cmd, flags.account)
			if err != nil {
				return err
			}
			defer env.Close()

			if _, err := runScan(cmd, env, flags); err != nil {
				return err
			}

			domains := env.aggregator.TopDomains(env.accountID, 0)
			domains = filterDomains(domains, age, search)
			if limit > 0 && len(domains) > limit {
				domains = domains[:limit]
			}

			if jsonFlag {
				return printJSON(toJSONDomains(domains))
			}
			printDomainTable(domains)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 25, "number of domains to show (0 for all)")
	cmd.Flags().StringVar(&age, "age", "", "only domains with mail in this age bucket")
	cmd.Flags().StringVar(&search, "search", "", "substring filter on domain name")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var accountFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scans for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			accountID := accountFlag
			if accountID == "" {
				accountID, err = resolveAccountID(db, cfg)
				if err != nil {
					return err
				}
			}

			records, err := db.ListScans(cmd.Context(), accountID, limit)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONScans(records))
			}

			if len(records) == 0 {
				fmt.Println("No scans recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tMESSAGES\tSIZE\tSENDERS\tDOMAINS")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\n",
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
					r.TotalMessages,
					humanSize(r.TotalSize),
					r.SenderCount,
					r.DomainCount,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of scans to show")
	return cmd
}

// validateAge checks an --age flag value against the known buckets.
func validateAge(age string) error {
	if age == "" {
		return nil
	}
	for _, c := range agg.AgeCategories {
		if c.Key == age {
			return nil
		}
	}
	keys := make([]string, len(agg.AgeCategories))
	for i, c := range agg.AgeCategories {
		keys[i] = c.Key
	}
	return fmt.Errorf("unknown age bucket %q (use one of: %s)", age, strings.Join(keys, ", "))
}

func filterSenders(senders []agg.RankedSender, age, search string) []agg.RankedSender {
	if age == "" && search == "" {
		return senders
	}
	search = strings.ToLower(search)
	out := senders[:0:0]
	for _, r := range senders {
		if age != "" && r.Sender.AgeDistribution[age] == 0 {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Sender.Email), search) &&
			!strings.Contains(strings.ToLower(r.Sender.Name), search) &&
			!strings.Contains(strings.ToLower(r.Sender.Domain), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func filterDomains(domains []agg.RankedDomain, age, search string) []agg.RankedDomain {
	if age == "" && search == "" {
		return domains
	}
	search = strings.ToLower(search)
	out := domains[:0:0]
	for _, r := range domains {
		if age != "" && r.Domain.AgeDistribution[age] == 0 {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Domain.Domain), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func printSenderTable(senders []agg.RankedSender) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SENDER\tCOUNT\tSIZE\tUNSUBSCRIBE")
	for _, r := range senders {
		unsub := ""
		if r.Sender.UnsubscribeLink != "" {
			unsub = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			r.Sender.Email, r.Sender.Count, humanSize(r.Sender.TotalSize), unsub)
	}
	w.Flush()
}

func printDomainTable(domains []agg.RankedDomain) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tSENDERS\tCOUNT\tSIZE")
	for _, r := range domains {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			r.Domain.Domain, len(r.Domain.Senders), r.Domain.TotalCount, humanSize(r.Domain.TotalSize))
	}
	w.Flush()
}
