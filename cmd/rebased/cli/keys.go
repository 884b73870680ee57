package cli

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ed25519"
)

var isKeyName = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,32}$`).MatchString

func keyPath(home, name string) string {
	return filepath.Join(home, keysDir, name+".key")
}

// CreateKey generates a new key and stores its hex encoded seed in home.
// An existing key is never overwritten.
func CreateKey(home, name string) (*crypto.PrivateKey, error) {
	if !isKeyName(name) {
		return nil, errors.Wrapf(errors.ErrInput, "key name %q", name)
	}
	if err := os.MkdirAll(filepath.Join(home, keysDir), 0o700); err != nil {
		return nil, errors.Wrap(err, "create keys dir")
	}
	key := crypto.GenPrivKeyEd25519()
	seed := ed25519.PrivateKey(key.Ed25519).Seed()
	fd, err := os.OpenFile(keyPath(home, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(errors.ErrDuplicate, "key %q", name)
		}
		return nil, errors.Wrap(err, "create key")
	}
	defer fd.Close()
	if _, err := fd.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return nil, errors.Wrap(err, "write key")
	}
	return key, nil
}

// LoadKey reads a key created by CreateKey.
func LoadKey(home, name string) (*crypto.PrivateKey, error) {
	if !isKeyName(name) {
		return nil, errors.Wrapf(errors.ErrInput, "key name %q", name)
	}
	raw, err := os.ReadFile(keyPath(home, name))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "key %q: %s", name, err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(errors.ErrInput, "key %q is malformed", name)
	}
	return crypto.PrivKeyEd25519FromSeed(seed), nil
}

type keyView struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Hex     string `json:"hex"`
}

func (k keyView) String() string {
	return k.Name + "\t" + k.Address + "\t" + k.Hex
}

func newKeyView(name string, key crypto.Signer) keyView {
	addr := key.PublicKey().Address()
	return keyView{Name: name, Address: addr.Bech32(), Hex: addr.String()}
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Generate a new key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := CreateKey(opts.Home, args[0])
			if err != nil {
				return err
			}
			return opts.output(cmd).Success(newKeyView(args[0], key))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print the address of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := LoadKey(opts.Home, args[0])
			if err != nil {
				return err
			}
			return opts.output(cmd).Success(newKeyView(args[0], key))
		},
	})
	return cmd
}
