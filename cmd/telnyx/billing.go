package main

import (
	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/output"
)

var balanceColumns = output.Columns(
	"balance", "Balance",
	"credit_limit", "Credit Limit",
	"available_credit", "Available Credit",
	"currency", "Currency",
)

func newBillingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Account billing",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Get the current account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching account balance...")
			b, raw, err := fetchBalance(cmd.Context(), a.client, a.opts())
			if err != nil {
				return err
			}

			rec := output.NewRecord(
				"balance", b.Balance+" "+b.Currency,
				"credit_limit", b.CreditLimit+" "+b.Currency,
				"available_credit", b.AvailableCredit+" "+b.Currency,
				"currency", b.Currency,
			)
			return a.renderDetail(rec, balanceColumns, raw)
		},
	})
	return cmd
}
