package rebase_test

import (
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	defer func(c string) { rebase.GitCommit = c }(rebase.GitCommit)

	rebase.GitCommit = ""
	assert.Equal(t, "v0.1.0-dev", rebase.Version())

	rebase.GitCommit = "12345678"
	assert.Equal(t, "v0.1.0-dev 12345678", rebase.Version())
}
