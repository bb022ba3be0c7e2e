package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/coverhue/internal/server"
	"github.com/jmylchreest/coverhue/internal/task"
)

var (
	serveFlags   optionFlags
	serveAddr    string
	serveMaxBody int64
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve palette extraction over HTTP",
	Long: `Start an HTTP server answering palette requests.

Endpoints:
  GET  /healthz      liveness and version
  GET  /v1/options   default options and accepted values
  POST /v1/palette   body is an encoded image, or raw pixels with ?raw=WxHxC;
                     query parameters override space, strategy, clamp, trim,
                     contrast, saliency, fit and size

The extraction flags set the defaults every request starts from.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd, task.ModeShared, "memory")
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "listen address")
	serveCmd.Flags().Int64Var(&serveMaxBody, "max-body", server.DefaultMaxBodyBytes, "largest accepted request body in bytes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := applyEnv(cmd); err != nil {
		return err
	}
	logger := newLogger(cmd)

	opts, err := serveFlags.options(logger.Named("extract"))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	prep, err := serveFlags.prepare()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	st, err := serveFlags.openStore(logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open palette cache: %w", err)
	}
	if st != nil {
		defer st.Close()
	}
	describeOptions(logger, opts)

	srv, err := server.New(server.Config{
		Addr:         serveAddr,
		MaxBodyBytes: serveMaxBody,
		Defaults:     opts,
		Prepare:      prep,
		Store:        st,
		Logger:       logger.Named("http"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
