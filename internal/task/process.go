package task

import (
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// Process runs every task in a fresh worker process, so a crash in one
// task cannot affect the host or other tasks.
type Process struct {
	path   string
	args   []string
	logger hclog.Logger
}

// NewProcess creates a dispatcher that starts path with args for each task.
// The executable must call ServeWorker.
func NewProcess(logger hclog.Logger, path string, args ...string) *Process {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Process{path: path, args: args, logger: logger}
}

func (p *Process) Run(req Request) *Future {
	f := newFuture()
	go func() {
		resp, err := p.execute(req)
		if err != nil {
			f.resolve(Response{}, fail(req, err))
			return
		}
		f.resolve(resp, nil)
	}()
	return f
}

func (p *Process) Mode() Mode { return ModeProcess }

func (p *Process) execute(req Request) (Response, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginName: &WorkerPlugin{},
		},
		Cmd:              exec.Command(p.path, p.args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           p.logger.Named("worker"),
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return Response{}, fmt.Errorf("failed to start worker: %w", err)
	}

	raw, err := rpcClient.Dispense(pluginName)
	if err != nil {
		return Response{}, fmt.Errorf("failed to dispense worker: %w", err)
	}

	worker, ok := raw.(Worker)
	if !ok {
		return Response{}, fmt.Errorf("worker has unexpected type %T", raw)
	}
	return worker.Execute(req)
}
