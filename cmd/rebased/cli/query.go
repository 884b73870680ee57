package cli

import (
	"context"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/rate"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// secondsPerYear converts between an annual rate and the per second
// rate kept by the ledger. Interest accrues linearly.
const secondsPerYear = 365 * 24 * 60 * 60

// RateFromAPR returns the per second rate, scaled by coin.Precision,
// that accrues apr (e.g. "0.05") over a year.
func RateFromAPR(apr string) (coin.Amount, error) {
	d, err := decimal.NewFromString(apr)
	if err != nil || d.IsNegative() {
		return coin.Amount{}, errors.Wrapf(errors.ErrAmount, "apr %q", apr)
	}
	return coin.ParseAmount(d.Shift(18).Div(decimal.NewFromInt(secondsPerYear)).Truncate(0).String())
}

// APR returns the annual rate accrued by a per second rate.
func APR(r coin.Amount) string {
	return decimal.RequireFromString(r.String()).Mul(decimal.NewFromInt(secondsPerYear)).Shift(-18).StringFixed(4)
}

type rateView struct {
	Rate coin.Amount `json:"rate"`
	APR  string      `json:"apr"`
}

func (v rateView) String() string {
	return v.Rate.String() + " per second (apr " + v.APR + ")"
}

// NewRateCommand creates the rate command.
func NewRateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Inspect or lower the global rate",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the global rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				var current coin.Amount
				err := s.node.View(ctx, func(_ rebase.Context, db rebase.KVStore) error {
					var err error
					current, err = s.domain.Rates.Current(db)
					return err
				})
				if err != nil {
					return err
				}
				return opts.output(cmd).Success(rateView{Rate: current, APR: APR(current)})
			})
		},
	})

	var apr string
	set := txCommand(opts, "set [rate]", "Lower the global rate, per second scaled by 1e18", cobra.MaximumNArgs(1),
		func(_ rebase.Address, args []string) (rebase.Msg, error) {
			var (
				r   coin.Amount
				err error
			)
			switch {
			case apr != "" && len(args) == 0:
				r, err = RateFromAPR(apr)
			case apr == "" && len(args) == 1:
				r, err = parseAmount(args[0])
			default:
				return nil, errors.Wrap(errors.ErrInput, "give either a rate or --apr")
			}
			if err != nil {
				return nil, err
			}
			return &rate.SetRateMsg{Metadata: meta, Rate: r}, nil
		})
	set.Flags().StringVar(&apr, "apr", "", "annual rate as a decimal fraction, e.g. 0.05")
	cmd.AddCommand(set)
	return cmd
}

type balanceView struct {
	Address     string      `json:"address"`
	Balance     coin.Amount `json:"balance"`
	Principal   coin.Amount `json:"principal"`
	Rate        coin.Amount `json:"rate"`
	Native      coin.Amount `json:"native"`
	LastAccrual int64       `json:"last_accrual"`
	// Display is the balance with --decimals applied.
	Display string `json:"display"`
}

func (v balanceView) String() string {
	return v.Address + "\tbalance " + v.Display + "\tnative " + v.Native.String() + "\trate " + v.Rate.String()
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the ledger and native balance of an address, the signer by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				var addr rebase.Address
				if len(args) == 1 {
					a, err := parseAddress(args[0])
					if err != nil {
						return err
					}
					addr = a
				} else {
					key, err := opts.signer(s)
					if err != nil {
						return err
					}
					addr = key.PublicKey().Address()
				}

				v := balanceView{Address: addr.Bech32()}
				err := s.node.View(ctx, func(ctx rebase.Context, db rebase.KVStore) error {
					var err error
					if v.Balance, err = s.domain.Supply.BalanceOf(ctx, db, addr); err != nil {
						return errors.Wrap(err, "balance")
					}
					h, err := s.domain.Supply.Engine().Load(db, addr)
					if err != nil {
						return errors.Wrap(err, "holder")
					}
					v.Principal, v.Rate, v.LastAccrual = h.Principal, h.Rate, int64(h.LastAccrual)
					if v.Native, err = s.domain.Native.Balance(db, addr); err != nil {
						return errors.Wrap(err, "native")
					}
					return nil
				})
				if err != nil {
					return err
				}
				v.Display = v.Balance.Decimal(opts.Decimals)
				return opts.output(cmd).Success(v)
			})
		},
	}
}
