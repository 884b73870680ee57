package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/iov-one/rebase/errors"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"}, {"keys", "add"}, {"keys", "show"}, {"genesis", "template"}, {"start-genesis"},
		{"deposit"}, {"redeem"}, {"fund"}, {"pay"}, {"transfer"},
		{"rate", "show"}, {"rate", "set"}, {"balance"},
		{"bridge", "send"}, {"bridge", "retry"}, {"bridge", "configure"}, {"bridge", "receipts"},
		{"grant"}, {"revoke"}, {"tick"}, {"relay"}, {"version"},
	}
	for _, path := range commands {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for name, def := range map[string]string{"format": "text", "log-level": "", "key": ""} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue)
	}
	require.NotNil(t, cmd.PersistentFlags().Lookup("home"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "version", "--format", "yaml")
	require.True(t, errors.ErrInput.Is(err))
}

func TestGenesisTemplateGolden(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "genesis", "template",
		"--domain", "domain-a",
		"--operator", "0123456789ABCDEF0123456789ABCDEF01234567",
		"--remote", "domain-b",
	)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "genesis_template", out)
}

func TestGenesisTemplateRejectsBadOperator(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "genesis", "template", "--domain", "domain-a", "--operator", "")
	require.Error(t, err)
}

// execute runs the command line and returns everything written to stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) ([]byte, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.Bytes(), err
}

// executeJSON runs the command with json output and decodes its data.
func executeJSON(t *testing.T, opts *RootOptions, data interface{}, args ...string) {
	t.Helper()
	out, err := execute(t, opts, append(args, "--format", "json")...)
	require.NoError(t, err, "%v", args)
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Equal(t, "ok", resp.Status)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
}

func TestBridgeAcrossHomes(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := &RootOptions{Clock: func() time.Time { return now }}
	dir := t.TempDir()
	homeA, homeB := filepath.Join(dir, "a"), filepath.Join(dir, "b")

	var a, b initView
	executeJSON(t, opts, &a, "init", "--home", homeA, "--domain", "domain-a", "--remote", "domain-b")
	executeJSON(t, opts, &b, "init", "--home", homeB, "--domain", "domain-b", "--remote", "domain-a")
	executeJSON(t, opts, nil, "start-genesis", "--home", homeA)
	executeJSON(t, opts, nil, "start-genesis", "--home", homeB)

	// A home cannot be initialized twice.
	_, err := execute(t, opts, "init", "--home", homeA, "--domain", "domain-a")
	require.True(t, errors.ErrDuplicate.Is(err))

	var tx txView
	executeJSON(t, opts, &tx, "deposit", "1000", "--home", homeA)
	executeJSON(t, opts, &tx, "bridge", "send", "domain-b", "400", "--home", homeA)
	assert.Equal(t, "400", tx.Log)
	assert.NotEmpty(t, tx.Data)

	var relayed relayView
	executeJSON(t, opts, &relayed, "relay", "--from", homeA, "--to", homeB)
	assert.Equal(t, relayView{Published: 1, Delivered: 1, Pending: 0}, relayed)

	// Running again is harmless.
	executeJSON(t, opts, &relayed, "relay", "--from", homeA, "--to", homeB)
	assert.Equal(t, 0, relayed.Delivered)

	var bal balanceView
	executeJSON(t, opts, &bal, "balance", a.Operator, "--home", homeB)
	assert.Equal(t, "400", bal.Balance.String())
	executeJSON(t, opts, &bal, "balance", "--home", homeA)
	assert.Equal(t, "600", bal.Balance.String())

	var receipts []receiptView
	executeJSON(t, opts, &receipts, "bridge", "receipts", "--home", homeB)
	assert.Empty(t, receipts)
	executeJSON(t, opts, &receipts, "bridge", "receipts", tx.Data, "--home", homeB)
	require.Len(t, receipts, 1)
	assert.Equal(t, "domain-a", receipts[0].Source)
}

func TestRateCommands(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := &RootOptions{Clock: func() time.Time { return now }}
	home := t.TempDir()
	executeJSON(t, opts, nil, "init", "--home", home, "--domain", "domain-a")
	executeJSON(t, opts, nil, "start-genesis", "--home", home)

	var r rateView
	executeJSON(t, opts, &r, "rate", "show", "--home", home)
	assert.Equal(t, "5000000000", r.Rate.String())

	executeJSON(t, opts, nil, "rate", "set", "--apr", "0.05", "--home", home)
	executeJSON(t, opts, &r, "rate", "show", "--home", home)
	assert.Equal(t, "1585489599", r.Rate.String())
	assert.Equal(t, "0.0500", r.APR)

	// The rate never goes up.
	_, err := execute(t, opts, "rate", "set", "5000000000", "--home", home)
	require.True(t, errors.ErrRateIncrease.Is(err))

	// Only the operator may change it.
	executeJSON(t, opts, nil, "keys", "add", "stranger", "--home", home)
	_, err = execute(t, opts, "rate", "set", "1", "--key", "stranger", "--home", home)
	require.True(t, errors.ErrUnauthorized.Is(err))

	_, err = execute(t, opts, "rate", "set", "1", "--apr", "0.01", "--home", home)
	require.True(t, errors.ErrInput.Is(err))
}

func TestRateFromAPR(t *testing.T) {
	r, err := RateFromAPR("0")
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	_, err = RateFromAPR("-0.1")
	require.True(t, errors.ErrAmount.Is(err))
	_, err = RateFromAPR("ten")
	require.True(t, errors.ErrAmount.Is(err))
}

func TestDecimalAmounts(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := &RootOptions{Clock: func() time.Time { return now }}
	home := t.TempDir()
	executeJSON(t, opts, nil, "init", "--home", home, "--domain", "domain-a")
	executeJSON(t, opts, nil, "start-genesis", "--home", home)

	executeJSON(t, opts, nil, "deposit", "1.5", "--decimals", "3", "--home", home)

	var bal balanceView
	executeJSON(t, opts, &bal, "balance", "--decimals", "3", "--home", home)
	assert.Equal(t, "1500", bal.Balance.String())
	assert.Equal(t, "1.5", bal.Display)

	_, err := execute(t, opts, "deposit", "0.0001", "--decimals", "3", "--home", home)
	require.True(t, errors.ErrAmount.Is(err))
	_, err = execute(t, opts, "deposit", "1", "--decimals", "-1", "--home", home)
	require.True(t, errors.ErrInput.Is(err))
}
