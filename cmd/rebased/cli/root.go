/*
Package cli implements the rebased command line.

Every command works on a home directory holding config.yaml, the
genesis file, the signing keys and the node database.
*/
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	rebased "github.com/iov-one/rebase/cmd/rebased/app"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Home     string
	LogLevel string
	Format   string // "json" | "text"
	Key      string
	// Decimals is the number of fractional digits of amount arguments.
	Decimals int32

	// Clock overrides the node block time source, used by tests.
	Clock func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebased",
		Short: "Interest accruing ledger with a cross domain bridge",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return errors.Wrapf(errors.ErrInput, "format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".rebased")
	cmd.PersistentFlags().StringVar(&opts.Home, "home", defaultHome, "directory to store files under")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log filter, e.g. info or debug (defaults to config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Key, "key", "", "name of the signing key (defaults to the operator)")
	cmd.PersistentFlags().Int32Var(&opts.Decimals, "decimals", 0, "fractional digits of amount arguments and balances")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewGenesisCommand(opts))
	cmd.AddCommand(NewStartGenesisCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewRedeemCommand(opts))
	cmd.AddCommand(NewFundCommand(opts))
	cmd.AddCommand(NewPayCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewRateCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewBridgeCommand(opts))
	cmd.AddCommand(NewGrantCommand(opts))
	cmd.AddCommand(NewRevokeCommand(opts))
	cmd.AddCommand(NewTickCommand(opts))
	cmd.AddCommand(NewRelayCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.output(cmd).Success(rebase.Version())
		},
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// logger returns a tendermint logger writing to w, filtered by the
// --log-level flag or the configured level.
func (o *RootOptions) logger(w io.Writer, conf *Config) (log.Logger, error) {
	level := o.LogLevel
	if level == "" && conf != nil {
		level = conf.LogLevel
	}
	if level == "" {
		level = "info"
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	var logger log.Logger
	if o.Format == "json" {
		logger = log.NewTMJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewTMLogger(log.NewSyncWriter(w))
	}
	return log.NewFilter(logger, opt).With("module", "rebased"), nil
}

// session is an open node of a home directory.
type session struct {
	home   string
	conf   *Config
	node   *app.Node
	domain *rebased.Domain
	logger log.Logger
	close  func()
}

func (o *RootOptions) open(cmd *cobra.Command, home string) (*session, error) {
	conf, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}
	logger, err := o.logger(cmd.ErrOrStderr(), conf)
	if err != nil {
		return nil, err
	}
	nodeOpts := []app.Option{app.WithLogger(logger)}
	if o.Clock != nil {
		nodeOpts = append(nodeOpts, app.WithClock(o.Clock))
	}
	dbPath := path(home, conf.Database)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	node, domain, closeDB, err := rebased.Node(dbPath, nodeOpts...)
	if err != nil {
		return nil, err
	}
	return &session{home: home, conf: conf, node: node, domain: domain, logger: logger, close: closeDB}, nil
}

// signer returns the key selected by --key or the operator key.
func (o *RootOptions) signer(s *session) (crypto.Signer, error) {
	name := o.Key
	if name == "" {
		name = s.conf.Operator
	}
	return LoadKey(s.home, name)
}

// withSession opens the home node for the duration of fn.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := o.open(cmd, o.Home)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(cmd.Context(), s)
}
