// Command docker-prebuilt installs a pinned Docker engine release from the
// vendor's prebuilt archives onto a Linux x86_64 host.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/ui"
)

// Version is the Docker release this installer ships. Set at build time
// via -ldflags "-X main.Version=...".
var Version = "1.10.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := pipeline.ExitSuccess

	root := &cobra.Command{
		Use:           "docker-prebuilt",
		Short:         "Install a prebuilt Docker engine",
		Long:          fmt.Sprintf("Installs Docker %s into the system binary directory, restarts the daemon and adds the invoking user to the docker group.", Version),
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := runInstall(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			exitCode = code
			return err
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, ui.ErrorMsg("%v", err))
		return pipeline.ExitFailure
	}
	return exitCode
}
