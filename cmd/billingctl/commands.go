package main

import (
	"fmt"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/service"
	"github.com/shehrozeikram/ERP-sub003/internal/statement"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFiguresCmd(opts *globalOpts) *cobra.Command {
	var file, chargeType, at string

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Compute the figures of an invoice",
		Example: `  # Rent figures of an exported invoice as of a given day
  billingctl figures --file invoice.json --type RENT --as-of 2026-10-14

  # Read from stdin
  cat invoice.json | billingctl figures --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := service.ParseFilter(chargeType)
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			when, err := asOf(at, calc)
			if err != nil {
				return err
			}

			var inv domain.Invoice
			if err := readJSON(cmd, file, &inv); err != nil {
				return err
			}

			f := calc.Compute(&inv, filter, when)
			if f.GrandTotalDrift.Valid {
				opts.logger.Warn("grand total disagrees with charge breakdown",
					zap.String("invoice_id", inv.ID),
					zap.String("drift", f.GrandTotalDrift.Decimal.String()),
				)
			}
			return printJSON(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Invoice JSON file, - for stdin")
	cmd.Flags().StringVarP(&chargeType, "type", "t", "", "Charge type: RENT, ELECTRICITY, CAM or empty for all")
	cmd.Flags().StringVar(&at, "as-of", "", "Evaluation day (YYYY-MM-DD, default today)")
	return cmd
}

func newStatementCmd(opts *globalOpts) *cobra.Command {
	var file, chargeType, at, account string

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Build the tri-fold document of an invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := service.ParseFilter(chargeType)
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			when, err := asOf(at, calc)
			if err != nil {
				return err
			}

			var inv domain.Invoice
			if err := readJSON(cmd, file, &inv); err != nil {
				return err
			}

			b := statement.NewBuilder(statement.Config{
				BankAccountNo: account,
				Calculator:    calc,
				Now:           func() time.Time { return when },
			})
			doc := b.Build(&inv, filter)
			opts.logger.Info("statement built",
				zap.String("invoice_id", inv.ID),
				zap.String("file_name", doc.FileName),
			)
			return printJSON(cmd, doc)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Invoice JSON file, - for stdin")
	cmd.Flags().StringVarP(&chargeType, "type", "t", "", "Charge type: RENT, ELECTRICITY, CAM or empty for all")
	cmd.Flags().StringVar(&at, "as-of", "", "Evaluation day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&account, "account", "", "Bank account number printed on the document")
	return cmd
}

func newCarryForwardCmd(opts *globalOpts) *cobra.Command {
	var file, chargeType, at, exclude string

	cmd := &cobra.Command{
		Use:   "carry-forward",
		Short: "Compute arrears to carry into a new invoice",
		Long: `Reads a JSON array with the invoice history of one property and prints
the arrears a new invoice of the given charge type inherits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := service.ParseFilter(chargeType)
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			when, err := asOf(at, calc)
			if err != nil {
				return err
			}

			var history []domain.Invoice
			if err := readJSON(cmd, file, &history); err != nil {
				return err
			}

			res := calc.CarryForwardArrears(history, filter, when, exclude)
			return printJSON(cmd, domain.CarryForward{
				ChargeType:     filter,
				Arrears:        res.Arrears,
				SourceInvoice:  res.Source,
				InvoicesLooked: len(history),
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Invoice history JSON file, - for stdin")
	cmd.Flags().StringVarP(&chargeType, "type", "t", "", "Charge type: RENT, ELECTRICITY, CAM or empty for all")
	cmd.Flags().StringVar(&at, "as-of", "", "Evaluation day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Invoice id to leave out (the one being created)")
	return cmd
}

func newInvoiceNumberCmd(_ *globalOpts) *cobra.Command {
	var srNo, year, month int
	var invoiceType, suffix string

	cmd := &cobra.Command{
		Use:     "invoice-number",
		Short:   "Format an invoice number",
		Example: `  billingctl invoice-number --sr 12 --year 2026 --month 3 --type CAM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 1 || month > 12 {
				return fmt.Errorf("--month must be between 1 and 12")
			}
			if year < 1 {
				return fmt.Errorf("--year is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), billing.InvoiceNumber(srNo, year, month, invoiceType, suffix))
			return nil
		},
	}

	cmd.Flags().IntVar(&srNo, "sr", 1, "Property serial number")
	cmd.Flags().IntVar(&year, "year", 0, "Billing year")
	cmd.Flags().IntVar(&month, "month", 0, "Billing month (1-12)")
	cmd.Flags().StringVar(&invoiceType, "type", "", "Invoice type: CAM, ELECTRICITY, RENT, MIXED")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Optional suffix")
	return cmd
}
