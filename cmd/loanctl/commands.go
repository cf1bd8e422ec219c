package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"loanflow/internal/app"
	"loanflow/internal/config"
	"loanflow/internal/domain/loan"
	"loanflow/internal/infrastructure/logger"
	loanuc "loanflow/internal/usecase/loan"
	"loanflow/internal/usecase/status"
)

type statusService interface {
	ChangeStatus(ctx context.Context, loanID, target string, f status.Fields) (*loan.Loan, error)
	RespondToNewCantity(ctx context.Context, loanID string, accept bool) (*loan.Loan, error)
	Disburse(ctx context.Context, loanID string) (*loan.Loan, error)
}

// deps is what the commands run against; tests swap it for fakes.
type deps struct {
	status  statusService
	migrate func() error
	flush   func(ctx context.Context) error
	close   func() error
}

type opener func(ctx context.Context) (*deps, error)

func openApp(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lg, err := logger.New(cfg.AppMode, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		return nil, err
	}
	return &deps{
		status:  a.Status,
		migrate: a.Migrate,
		flush:   a.Queue.Flush,
		close: func() error {
			_ = lg.Sync()
			return a.Close()
		},
	}, nil
}

func newRootCmd(open opener) *cobra.Command {
	var flushTimeout time.Duration

	root := &cobra.Command{
		Use:           "loanctl",
		Short:         "Operate on loans from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&flushTimeout, "flush-timeout", 30*time.Second, "how long to wait for queued notifications before exiting")

	// run opens the services, runs fn and drains the notification queue so
	// borrower emails go out before the process exits.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		d, err := open(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = d.close() }()

		if err := fn(ctx, d); err != nil {
			return err
		}
		fctx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		if err := d.flush(fctx); err != nil {
			return fmt.Errorf("flush notifications: %w", err)
		}
		return nil
	}

	root.AddCommand(migrateCmd(run))
	root.AddCommand(statusCmd(run))
	root.AddCommand(respondCmd(run))
	root.AddCommand(disburseCmd(run))
	return root
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error

func migrateCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, d *deps) error {
				if err := d.migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func statusCmd(run runner) *cobra.Command {
	var employeeID, reasonReject, newCantity, reasonChange string

	cmd := &cobra.Command{
		Use:   "status <loan_id> <status>",
		Short: "Change the status of a loan",
		Long: `Change the status of a loan.

Approving with --new-cantity and --reason-change-cantity proposes a new
amount to the borrower instead. Deferring with --reason-reject rejects the
loan documents.

Examples:
  loanctl status 3f9a... approved --employee-id e1e1...
  loanctl status 3f9a... approved --new-cantity 800000 --reason-change-cantity "income check"
  loanctl status 3f9a... deferred --reason-reject "illegible payslip"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, d *deps) error {
				l, err := d.status.ChangeStatus(ctx, args[0], args[1], status.Fields{
					ReasonReject:        &reasonReject,
					ReasonChangeCantity: &reasonChange,
					NewCantity:          &newCantity,
					EmployeeID:          &employeeID,
				})
				if err != nil {
					return err
				}
				return printLoan(cmd, l)
			})
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee-id", "", "employee taking the decision")
	cmd.Flags().StringVar(&reasonReject, "reason-reject", "", "reason shown to the borrower when documents are rejected")
	cmd.Flags().StringVar(&newCantity, "new-cantity", "", "renegotiated amount")
	cmd.Flags().StringVar(&reasonChange, "reason-change-cantity", "", "reason for the renegotiated amount")
	return cmd
}

func respondCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "respond <loan_id> <accept>",
		Short: "Record the borrower's answer to a renegotiated amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accept, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("accept must be true or false: %w", err)
			}
			return run(cmd, func(ctx context.Context, d *deps) error {
				l, err := d.status.RespondToNewCantity(ctx, args[0], accept)
				if err != nil {
					return err
				}
				return printLoan(cmd, l)
			})
		},
	}
}

func disburseCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "disburse <loan_id>",
		Short: "Mark an approved loan as disbursed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, d *deps) error {
				l, err := d.status.Disburse(ctx, args[0])
				if err != nil {
					return err
				}
				return printLoan(cmd, l)
			})
		},
	}
}

func printLoan(cmd *cobra.Command, l *loan.Loan) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(loanuc.ToDTO(l))
}
