package cli

import (
	"context"
	"encoding/hex"
	"strings"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/bridge"
	"github.com/spf13/cobra"
)

// NewBridgeCommand creates the bridge command.
func NewBridgeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Move ledger balance to other domains",
	}
	cmd.AddCommand(
		newBridgeSendCommand(opts),
		newBridgeRetryCommand(opts),
		newBridgeConfigureCommand(opts),
		newBridgeReceiptsCommand(opts),
	)
	return cmd
}

func newBridgeSendCommand(opts *RootOptions) *cobra.Command {
	var recipient string
	cmd := txCommand(opts, "send <destination> <amount|all>", "Burn ledger balance and emit a message to a remote domain", cobra.ExactArgs(2),
		func(signer rebase.Address, args []string) (rebase.Msg, error) {
			amount, err := opts.amount(args[1])
			if err != nil {
				return nil, err
			}
			to := signer
			if recipient != "" {
				if to, err = parseAddress(recipient); err != nil {
					return nil, err
				}
			}
			return &bridge.SendMsg{Metadata: meta, Sender: signer, Recipient: to, Destination: args[0], Amount: amount}, nil
		})
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient on the destination domain (defaults to the signer)")
	return cmd
}

func newBridgeRetryCommand(opts *RootOptions) *cobra.Command {
	return txCommand(opts, "retry <message-id>", "Retry the mint of a pending inbound message", cobra.ExactArgs(1),
		func(_ rebase.Address, args []string) (rebase.Msg, error) {
			id, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInput, "message id %q", args[0])
			}
			return &bridge.RetryMsg{Metadata: meta, MessageID: id}, nil
		})
}

func newBridgeConfigureCommand(opts *RootOptions) *cobra.Command {
	var (
		disabled               bool
		outCapacity, outRefill string
		inCapacity, inRefill   string
	)
	cmd := txCommand(opts, "configure <domain>", "Enable, disable or rate limit a remote domain, owner only", cobra.ExactArgs(1),
		func(_ rebase.Address, args []string) (rebase.Msg, error) {
			outbound, err := limiter(outCapacity, outRefill)
			if err != nil {
				return nil, errors.Wrap(err, "outbound")
			}
			inbound, err := limiter(inCapacity, inRefill)
			if err != nil {
				return nil, errors.Wrap(err, "inbound")
			}
			return &bridge.ConfigureRemoteMsg{
				Metadata: meta,
				DomainID: args[0],
				Enabled:  !disabled,
				Outbound: outbound,
				Inbound:  inbound,
			}, nil
		})
	cmd.Flags().BoolVar(&disabled, "disable", false, "reject messages to and from the domain")
	cmd.Flags().StringVar(&outCapacity, "outbound-capacity", "", "outbound bucket capacity, empty for no limit")
	cmd.Flags().StringVar(&outRefill, "outbound-refill", "0", "outbound refill per second")
	cmd.Flags().StringVar(&inCapacity, "inbound-capacity", "", "inbound bucket capacity, empty for no limit")
	cmd.Flags().StringVar(&inRefill, "inbound-refill", "0", "inbound refill per second")
	return cmd
}

func limiter(capacity, refill string) (*bridge.Limiter, error) {
	if capacity == "" {
		return nil, nil
	}
	c, err := parseAmount(capacity)
	if err != nil {
		return nil, err
	}
	r, err := parseAmount(refill)
	if err != nil {
		return nil, err
	}
	if c.IsAll() || r.IsAll() {
		return nil, errors.Wrap(errors.ErrAmount, "limits must be numbers")
	}
	return &bridge.Limiter{Capacity: c, RefillPerSecond: r}, nil
}

type receiptView struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	Recipient string      `json:"recipient"`
	Amount    coin.Amount `json:"amount"`
	Status    string      `json:"status"`
	Attempts  int32       `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
}

type receiptsView []receiptView

func (v receiptsView) String() string {
	if len(v) == 0 {
		return "no pending receipts"
	}
	lines := make([]string, 0, len(v))
	for _, r := range v {
		lines = append(lines, r.ID+"\t"+r.Source+"\t"+r.Amount.String()+"\t"+r.Status+"\t"+r.LastError)
	}
	return strings.Join(lines, "\n")
}

func newReceiptView(r *bridge.Receipt) receiptView {
	return receiptView{
		ID:        r.Message.HexID(),
		Source:    r.Message.SourceDomain,
		Recipient: r.Message.Recipient.Bech32(),
		Amount:    r.Message.Amount,
		Status:    r.Status.String(),
		Attempts:  r.Attempts,
		LastError: r.LastError,
	}
}

func newBridgeReceiptsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "receipts [message-id]",
		Short: "Print a receipt, or all pending inbound receipts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session) error {
				var receipts []*bridge.Receipt
				err := s.node.View(ctx, func(_ rebase.Context, db rebase.KVStore) error {
					if len(args) == 0 {
						var err error
						receipts, err = s.domain.Bridge.PendingReceipts(db)
						return err
					}
					id, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
					if err != nil {
						return errors.Wrapf(errors.ErrInput, "message id %q", args[0])
					}
					r, err := s.domain.Bridge.Receipt(db, id)
					if err != nil {
						return err
					}
					receipts = append(receipts, r)
					return nil
				})
				if err != nil {
					return err
				}
				views := make(receiptsView, 0, len(receipts))
				for _, r := range receipts {
					views = append(views, newReceiptView(r))
				}
				return opts.output(cmd).Success(views)
			})
		},
	}
}
