// Command jrevolver resolves JSON layouts into mock documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/jrevolver/internal/cli"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	cancel()
	os.Exit(exitCode(err))
}

// exitCode reports err on stderr and maps it to a process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130 // interrupted
	}
	if code := jerrors.GetCode(err); code != "" {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", code, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}
