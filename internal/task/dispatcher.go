package task

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Mode selects how tasks are executed.
type Mode string

const (
	// ModeInline runs each task on the caller's goroutine.
	ModeInline Mode = "inline"
	// ModeDedicated starts one goroutine per task.
	ModeDedicated Mode = "dedicated"
	// ModeShared queues tasks on the process-wide worker pool.
	ModeShared Mode = "shared"
	// ModeProcess runs each task in a fresh worker process.
	ModeProcess Mode = "process"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeInline

// Modes lists every mode in a stable order.
func Modes() []Mode {
	return []Mode{ModeInline, ModeDedicated, ModeShared, ModeProcess}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes() {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid worker mode %q (valid: inline, dedicated, shared, process)", s)
}

// Dispatcher executes tasks and hands back futures. A failed task rejects
// its future with an *Error; it never takes down the caller.
type Dispatcher interface {
	Run(req Request) *Future
	Mode() Mode
}

// Config configures New.
type Config struct {
	Mode   Mode
	Logger hclog.Logger

	// WorkerPath and WorkerArgs start a worker process in ModeProcess. The
	// running executable with the "worker" argument is used when unset.
	WorkerPath string
	WorkerArgs []string
}

// New returns a dispatcher for cfg.Mode.
func New(cfg Config) (Dispatcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	mode := cfg.Mode
	if mode == "" {
		mode = DefaultMode
	}

	switch mode {
	case ModeShared:
		return Shared(logger), nil
	case ModeInline:
		return NewInline(logger), nil
	case ModeDedicated:
		return NewDedicated(logger), nil
	case ModeProcess:
		path, args := cfg.WorkerPath, cfg.WorkerArgs
		if path == "" {
			exe, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("failed to locate worker executable: %w", err)
			}
			path, args = exe, []string{"worker"}
		}
		return NewProcess(logger, path, args...), nil
	default:
		return nil, fmt.Errorf("invalid worker mode %q", mode)
	}
}

// Inline runs tasks synchronously. Run returns an already resolved future.
type Inline struct {
	logger hclog.Logger
}

// NewInline creates an inline dispatcher.
func NewInline(logger hclog.Logger) *Inline {
	return &Inline{logger: logger}
}

func (d *Inline) Run(req Request) *Future {
	return Resolved(safeExecute(d.logger, req))
}

func (d *Inline) Mode() Mode { return ModeInline }

// Dedicated starts a new goroutine for every task.
type Dedicated struct {
	logger hclog.Logger
}

// NewDedicated creates a dedicated dispatcher.
func NewDedicated(logger hclog.Logger) *Dedicated {
	return &Dedicated{logger: logger}
}

func (d *Dedicated) Run(req Request) *Future {
	f := newFuture()
	go func() {
		f.resolve(safeExecute(d.logger, req))
	}()
	return f
}

func (d *Dedicated) Mode() Mode { return ModeDedicated }
