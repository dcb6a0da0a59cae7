package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var flags scanFlags
	var out, what string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Scan and export the sender or domain report as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if what != "senders" && what != "domains" {
				return fmt.Errorf("unknown report %q (use senders or domains)", what)
			}

			env, err := newScanEnv(cmd, flags.account)
			if err != nil {
				return err
			}
			defer env.Close()

			if _, err := runScan(cmd, env, flags); err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if what == "senders" {
				err = writeSendersCSV(w, env.aggregator.TopSenders(env.accountID, 0))
			} else {
				err = writeDomainsCSV(w, env.aggregator.TopDomains(env.accountID, 0))
			}
			if err != nil {
				return err
			}

			if out != "" && !jsonFlag {
				fmt.Printf("Report written to %s\n", out)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output file (defaults to stdout)")
	cmd.Flags().StringVar(&what, "report", "senders", "which report to export (senders or domains)")
	return cmd
}

func writeSendersCSV(w io.Writer, senders []agg.RankedSender) error {
	cw := csv.NewWriter(w)
	header := []string{"account_id", "email", "name", "domain", "count", "total_size", "unsubscribe_link"}
	for _, c := range agg.AgeCategories {
		header = append(header, "age_"+c.Key)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range senders {
		row := []string{
			r.AccountID,
			r.Sender.Email,
			r.Sender.Name,
			r.Sender.Domain,
			strconv.Itoa(r.Sender.Count),
			strconv.FormatInt(r.Sender.TotalSize, 10),
			r.Sender.UnsubscribeLink,
		}
		for _, c := range agg.AgeCategories {
			row = append(row, strconv.Itoa(r.Sender.AgeDistribution[c.Key]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func writeDomainsCSV(w io.Writer, domains []agg.RankedDomain) error {
	cw := csv.NewWriter(w)
	header := []string{"account_id", "domain", "sender_count", "total_count", "total_size"}
	for _, c := range agg.AgeCategories {
		header = append(header, "age_"+c.Key)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range domains {
		row := []string{
			r.AccountID,
			r.Domain.Domain,
			strconv.Itoa(len(r.Domain.Senders)),
			strconv.Itoa(r.Domain.TotalCount),
			strconv.FormatInt(r.Domain.TotalSize, 10),
		}
		for _, c := range agg.AgeCategories {
			row = append(row, strconv.Itoa(r.Domain.AgeDistribution[c.Key]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
