package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	rebased "github.com/iov-one/rebase/cmd/rebased/app"
	"github.com/iov-one/rebase/errors"
	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Domain  string
	Remotes []string
}

type initView struct {
	Home     string `json:"home"`
	Domain   string `json:"domain"`
	Operator string `json:"operator"`
}

func (v initView) String() string {
	return "initialized " + v.Domain + " in " + v.Home + " operated by " + v.Operator
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration, operator key and genesis of a domain",
		Long: `Create a new home directory for a domain node.

The operator key is generated and owns every configuration of the
domain genesis. Apply the genesis with start-genesis.

Example:
  rebased init --home ./a --domain domain-a --remote domain-b`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := DefaultConfig(opts.Domain)
			if err := conf.Validate(); err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(opts.Home, configFile)); err == nil {
				return errors.Wrapf(errors.ErrDuplicate, "%s already initialized", opts.Home)
			}
			key, err := CreateKey(opts.Home, conf.Operator)
			if err != nil {
				return err
			}
			operator := key.PublicKey().Address()
			gen, err := rebased.GenesisTemplate(opts.Domain, operator, opts.Remotes...)
			if err != nil {
				return err
			}
			if err := writeGenesis(filepath.Join(opts.Home, genesisFile), gen); err != nil {
				return err
			}
			if err := WriteConfig(opts.Home, conf); err != nil {
				return err
			}
			return opts.output(cmd).Success(initView{Home: opts.Home, Domain: opts.Domain, Operator: operator.Bech32()})
		},
	}
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "chain id of the new domain (required)")
	cmd.Flags().StringSliceVar(&opts.Remotes, "remote", nil, "remote domain enabled for bridging, repeatable")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func writeGenesis(path string, gen *app.Genesis) error {
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "encode genesis: %s", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o600); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	return nil
}

// NewGenesisCommand creates the genesis command.
func NewGenesisCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis document helpers",
	}

	var (
		domain   string
		operator string
		remotes  []string
	)
	template := &cobra.Command{
		Use:   "template",
		Short: "Print a genesis document for a domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := rebase.ParseAddress(operator)
			if err != nil {
				return errors.Wrap(err, "operator")
			}
			gen, err := rebased.GenesisTemplate(domain, addr, remotes...)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(gen, "", "  ")
			if err != nil {
				return errors.Wrapf(errors.ErrInput, "encode genesis: %s", err)
			}
			// The document is printed as is so it can be redirected into a file.
			_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
			return err
		},
	}
	template.Flags().StringVar(&domain, "domain", "", "chain id of the domain (required)")
	template.Flags().StringVar(&operator, "operator", "", "operator address (required)")
	template.Flags().StringSliceVar(&remotes, "remote", nil, "remote domain enabled for bridging, repeatable")
	_ = template.MarkFlagRequired("domain")
	_ = template.MarkFlagRequired("operator")
	cmd.AddCommand(template)
	return cmd
}

type heightView struct {
	Domain string `json:"domain"`
	Height int64  `json:"height"`
}

func (v heightView) String() string {
	return v.Domain + " at height " + strconv.FormatInt(v.Height, 10)
}

// NewStartGenesisCommand creates the start-genesis command.
func NewStartGenesisCommand(opts *RootOptions) *cobra.Command {
	var genesis string
	cmd := &cobra.Command{
		Use:   "start-genesis",
		Short: "Apply the genesis file to an empty node database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(_ context.Context, s *session) error {
				p := genesis
				if p == "" {
					p = filepath.Join(s.home, genesisFile)
				}
				gen, err := app.LoadGenesis(p)
				if err != nil {
					return err
				}
				if gen.ChainID != s.conf.Domain {
					return errors.Wrapf(errors.ErrInput, "genesis of %q in a %q home", gen.ChainID, s.conf.Domain)
				}
				if err := s.node.InitGenesis(gen.ChainID, gen.AppOptions); err != nil {
					return err
				}
				s.logger.Info("genesis applied", "chain_id", gen.ChainID)
				return opts.output(cmd).Success(heightView{Domain: s.node.ChainID(), Height: s.node.Height()})
			})
		},
	}
	cmd.Flags().StringVar(&genesis, "genesis", "", "genesis file (defaults to genesis.json in home)")
	return cmd
}
