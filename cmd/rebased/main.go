package main

import (
	"fmt"
	"os"

	"github.com/iov-one/rebase/cmd/rebased/cli"
	"github.com/iov-one/rebase/errors"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		code, log := errors.Info(err, false)
		fmt.Fprintf(os.Stderr, "Error [%d]: %s\n", code, log)
		os.Exit(1)
	}
}
