package cli

import (
	"strconv"

	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/relay"
	"github.com/iov-one/rebase/transport/sqlqueue"
	"github.com/spf13/cobra"
)

// RelayOptions holds flags for the relay command.
type RelayOptions struct {
	*RootOptions
	From  string
	To    string
	Queue string
	// RelayKey names the destination key signing receive transactions.
	RelayKey string
}

type relayView struct {
	Published int `json:"published"`
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

func (v relayView) String() string {
	return "published " + strconv.Itoa(v.Published) + ", delivered " + strconv.Itoa(v.Delivered) + ", pending " + strconv.Itoa(v.Pending)
}

// NewRelayCommand creates the relay command.
func NewRelayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelayOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Carry bridge messages from one domain home to another",
		Long: `Publish every outbox message of the source domain into the relay
queue, then deliver all queued messages addressed to the destination.

Messages whose mint is still pending stay in the queue and are delivered
again by the next run. Running relay repeatedly is always safe.

Example:
  rebased relay --from ./a --to ./b`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "home of the source domain (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "home of the destination domain (required)")
	cmd.Flags().StringVar(&opts.Queue, "queue", "", "relay queue database (defaults to the queue of the source home)")
	cmd.Flags().StringVar(&opts.RelayKey, "relay-key", "", "destination key holding the relay capability (defaults to its operator)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runRelay(cmd *cobra.Command, opts *RelayOptions) error {
	ctx := cmd.Context()

	src, err := opts.open(cmd, opts.From)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	defer src.close()
	dst, err := opts.open(cmd, opts.To)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	defer dst.close()

	keyName := opts.RelayKey
	if keyName == "" {
		keyName = dst.conf.Operator
	}
	key, err := LoadKey(dst.home, keyName)
	if err != nil {
		return err
	}

	queuePath := opts.Queue
	if queuePath == "" {
		queuePath = path(src.home, src.conf.Queue)
	}
	queue, err := sqlqueue.Open(queuePath)
	if err != nil {
		return err
	}
	defer queue.Close()

	relayer := relay.NewRelayer(src.node, src.domain.Bridge, queue, src.logger)
	published, err := relayer.Scan(ctx)
	if err != nil {
		return err
	}

	endpoint := relay.NewEndpoint(dst.node, dst.domain.Bridge, key, dst.logger)
	delivered, perr := queue.Pump(ctx, dst.conf.Domain, endpoint)
	if perr != nil {
		// Failed envelopes stay queued for the next run.
		dst.logger.Error("relay incomplete", "err", perr)
	}
	pending, err := queue.Pending(ctx)
	if err != nil {
		return err
	}
	if err := opts.output(cmd).Success(relayView{Published: published, Delivered: delivered, Pending: pending}); err != nil {
		return err
	}
	return perr
}
