package cli

import (
	"context"
	"encoding/hex"
	"strconv"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/capability"
	"github.com/iov-one/rebase/x/native"
	"github.com/iov-one/rebase/x/supply"
	"github.com/iov-one/rebase/x/vault"
	"github.com/spf13/cobra"
)

var meta = &rebase.Metadata{Schema: 1}

type txView struct {
	Height int64  `json:"height"`
	Log    string `json:"log"`
	Data   string `json:"data,omitempty"`
}

func (v txView) String() string {
	s := "height " + strconv.FormatInt(v.Height, 10) + ": " + v.Log
	if v.Data != "" {
		s += " (" + v.Data + ")"
	}
	return s
}

// txCommand builds a command that signs and delivers a single message.
// build receives the signer address and the positional arguments.
func txCommand(opts *RootOptions, use, short string, args cobra.PositionalArgs, build func(signer rebase.Address, args []string) (rebase.Msg, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				key, err := opts.signer(s)
				if err != nil {
					return err
				}
				msg, err := build(key.PublicKey().Address(), args)
				if err != nil {
					return err
				}
				return opts.deliver(ctx, cmd, s, key, msg)
			})
		},
	}
}

func (o *RootOptions) deliver(ctx context.Context, cmd *cobra.Command, s *session, key crypto.Signer, msg rebase.Msg) error {
	res, err := s.node.SignAndDeliver(ctx, key, msg)
	if err != nil {
		return errors.Wrap(err, msg.Path())
	}
	v := txView{Height: s.node.Height(), Log: res.Log}
	if len(res.Data) > 0 {
		v.Data = hex.EncodeToString(res.Data)
	}
	return o.output(cmd).Success(v)
}

// amount parses a ledger or native asset amount in human notation.
func (o *RootOptions) amount(s string) (coin.Amount, error) {
	if o.Decimals < 0 {
		return coin.Amount{}, errors.Wrapf(errors.ErrInput, "decimals %d", o.Decimals)
	}
	a, err := coin.ParseDecimal(s, o.Decimals)
	if err != nil {
		return coin.Amount{}, errors.Wrapf(err, "amount %q", s)
	}
	return a, nil
}

// parseAmount parses a raw integer such as a rate or a limiter setting.
func parseAmount(s string) (coin.Amount, error) {
	a, err := coin.ParseAmount(s)
	if err != nil {
		return coin.Amount{}, errors.Wrapf(err, "amount %q", s)
	}
	return a, nil
}

func parseAddress(s string) (rebase.Address, error) {
	a, err := rebase.ParseAddress(s)
	if err != nil {
		return nil, errors.Wrapf(err, "address %q", s)
	}
	if err := a.Validate(); err != nil {
		return nil, errors.Wrapf(err, "address %q", s)
	}
	return a, nil
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "deposit <amount>", "Exchange native asset for ledger balance", cobra.ExactArgs(1),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			amount, err := opts.amount(args[0])
			if err != nil {
				return nil, err
			}
			return &vault.DepositMsg{Metadata: meta, Depositor: signer, Amount: amount}, nil
		})
}

// NewRedeemCommand creates the redeem command.
func NewRedeemCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "redeem <amount|all>", "Exchange ledger balance for native asset", cobra.ExactArgs(1),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			amount, err := opts.amount(args[0])
			if err != nil {
				return nil, err
			}
			return &vault.RedeemMsg{Metadata: meta, Holder: signer, Amount: amount}, nil
		})
}

// NewFundCommand creates the fund command.
func NewFundCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "fund <amount>", "Add native asset to the interest reserve", cobra.ExactArgs(1),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			amount, err := opts.amount(args[0])
			if err != nil {
				return nil, err
			}
			return &vault.FundMsg{Metadata: meta, Funder: signer, Amount: amount}, nil
		})
}

// NewPayCommand creates the pay command moving the native asset.
func NewPayCommand(opts *RootOptions) *cobra.Command {
	var memo string
	cmd := txCommand(opts, "pay <address> <amount>", "Send native asset", cobra.ExactArgs(2),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			dst, err := parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			amount, err := opts.amount(args[1])
			if err != nil {
				return nil, err
			}
			return &native.SendMsg{Metadata: meta, Source: signer, Destination: dst, Amount: amount, Memo: memo}, nil
		})
	cmd.Flags().StringVar(&memo, "memo", "", "optional memo")
	return cmd
}

// NewTransferCommand creates the transfer command moving ledger balance.
func NewTransferCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "transfer <address> <amount|all>", "Transfer ledger balance", cobra.ExactArgs(2),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			dst, err := parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			amount, err := opts.amount(args[1])
			if err != nil {
				return nil, err
			}
			return &supply.TransferMsg{Metadata: meta, Source: signer, Destination: dst, Amount: amount}, nil
		})
}

func parseCapability(s string) (capability.Capability, error) {
	c := capability.Capability(s)
	return c, c.Validate()
}

// NewGrantCommand creates the grant command.
func NewGrantCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "grant <address> <capability>", "Grant a capability, owner only", cobra.ExactArgs(2),
		func(_ rebase.Address, args []string) (rebase.Msg, error) {
			addr, err := parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			c, err := parseCapability(args[1])
			if err != nil {
				return nil, err
			}
			return &capability.GrantMsg{Metadata: meta, Address: addr, Capability: c}, nil
		})
}

// NewRevokeCommand creates the revoke command.
func NewRevokeCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "revoke <address> <capability>", "Revoke a capability, owner only", cobra.ExactArgs(2),
		func(_ rebase.Address, args []string) (rebase.Msg, error) {
			addr, err := parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			c, err := parseCapability(args[1])
			if err != nil {
				return nil, err
			}
			return &capability.RevokeMsg{Metadata: meta, Address: addr, Capability: c}, nil
		})
}

type tickView struct {
	Height int64    `json:"height"`
	Logs   []string `json:"logs"`
}

func (v tickView) String() string {
	s := "height " + strconv.FormatInt(v.Height, 10)
	for _, l := range v.Logs {
		s += "\n" + l
	}
	return s
}

// NewTickCommand creates the tick command running all tickers once.
func NewTickCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run the block tickers, retrying pending bridge mints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := s.node.Tick(ctx)
				if err != nil {
					return err
				}
				return opts.output(cmd).Success(tickView{Height: s.node.Height(), Logs: res.Logs})
			})
		},
	}
}
