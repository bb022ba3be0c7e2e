package cli

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/coverhue/internal/task"
)

// workerCmd runs one task worker process for the process dispatcher. It
// speaks the go-plugin handshake on stdout and is not meant to be started by
// hand.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run a palette task worker (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		task.ServeWorker(hclog.New(&hclog.LoggerOptions{
			Name:       "worker",
			Level:      hclog.Trace,
			Output:     cmd.ErrOrStderr(),
			JSONFormat: true,
		}))
	},
}
