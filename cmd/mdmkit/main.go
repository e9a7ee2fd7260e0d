package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/mdmtools/mdmkit/internal/cli"
	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		if classified := mdmerrors.ClassifyError(err); classified.UserMsg != "" && classified.Category != mdmerrors.CategoryUnknown {
			_, _ = fmt.Fprintln(os.Stderr, classified.UserMsg)
		}
		os.Exit(mdmerrors.ExitCodeFor(err))
	}
}
