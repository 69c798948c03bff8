// Package launcher bootstraps an embedded Lua runtime and hands control to
// the entry module.
//
// A launch walks a fixed sequence of phases: create the runtime and open the
// standard libraries, register the lpeg extension, publish the argument
// vector as the global arg, then resolve and call the entry module once.
// Failures before the entry module runs are returned as errors; anything
// raised by Lua code is reported as a failed Outcome.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Shopify/go-lua"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/luastart/internal/platform/errors"
	"github.com/louisbranch/luastart/internal/platform/otel"
)

const tracerName = "github.com/louisbranch/luastart/internal/launcher"

// Phase is a step of the launch sequence.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseRuntimeReady
	PhaseExtensionsRegistered
	PhaseArgumentsPublished
	PhaseDispatched
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRuntimeReady:
		return "runtime-ready"
	case PhaseExtensionsRegistered:
		return "extensions-registered"
	case PhaseArgumentsPublished:
		return "arguments-published"
	case PhaseDispatched:
		return "dispatched"
	case PhaseExited:
		return "exited"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Config controls a launch.
type Config struct {
	// Extension is installed before any Lua code runs. Defaults to lpeg.
	Extension Extension
	// Entry is the module the launch delegates to. Defaults to main,
	// resolved through package.searchers.
	Entry Entry
	// Path is a directory prepended to package.path when set.
	Path string
	// MaxArgs caps the number of script arguments; 0 leaves the limit to
	// the interpreter's stack.
	MaxArgs int
	Verbose bool
	Logger  *log.Logger
}

// Launcher runs the launch sequence once.
type Launcher struct {
	cfg      Config
	newState func() *lua.State
	tracer   trace.Tracer
	logger   *log.Logger
	phase    Phase
	runtime  *Runtime
}

// New builds a launcher, filling unset configuration with defaults.
func New(cfg Config) *Launcher {
	if cfg.Extension.Name == "" && cfg.Extension.Open == nil {
		cfg.Extension = DefaultExtension()
	}
	if cfg.Entry.Name == "" && cfg.Entry.Resolver == nil {
		cfg.Entry = DefaultEntry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Launcher{
		cfg:      cfg,
		newState: lua.NewState,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// Phase reports how far the launch has progressed.
func (ln *Launcher) Phase() Phase {
	return ln.phase
}

// Runtime returns the runtime created by Run, or nil before it exists.
func (ln *Launcher) Runtime() *Runtime {
	return ln.runtime
}

// Run performs the launch for argv, argv[0] being the program path. The
// returned error reports a condition that stopped the launch before the
// entry module could run; otherwise the outcome tells whether Lua code
// raised.
func (ln *Launcher) Run(ctx context.Context, argv []string) (Outcome, error) {
	if ln.phase != PhaseUninitialized {
		return Outcome{}, apperrors.New(apperrors.CodeLauncherReused, "launcher already ran")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := ln.tracer.Start(ctx, "launcher.run")
	defer span.End()

	args, err := CaptureArgs(argv)
	if err != nil {
		return Outcome{}, ln.fail(span, err)
	}
	span.SetAttributes(attribute.Int("luastart.args", args.Len()))

	if err := ln.startRuntime(ctx); err != nil {
		return Outcome{}, ln.fail(span, err)
	}

	if outcome := ln.register(ctx); outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Message())
		return outcome, nil
	}

	if err := ln.publish(ctx, args); err != nil {
		return Outcome{}, ln.fail(span, err)
	}

	outcome := ln.dispatch(ctx, args)
	if outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Message())
	}
	return outcome, nil
}

// Exit writes the diagnostic for o to w and returns the process exit code.
func (ln *Launcher) Exit(w io.Writer, o Outcome) int {
	code := Exit(w, o)
	ln.advance(PhaseExited)
	return code
}

func (ln *Launcher) startRuntime(ctx context.Context) error {
	_, span := ln.tracer.Start(ctx, "launcher.runtime")
	defer span.End()

	rt, err := newRuntime(ln.newState)
	if err != nil {
		return ln.fail(span, err)
	}
	if ln.cfg.Path != "" {
		if err := rt.PrependPath(ln.cfg.Path); err != nil {
			return ln.fail(span, err)
		}
		ln.logf("package.path prefixed with %s", ln.cfg.Path)
	}
	ln.runtime = rt
	ln.advance(PhaseRuntimeReady)
	return nil
}

func (ln *Launcher) register(ctx context.Context) Outcome {
	_, span := ln.tracer.Start(ctx, "launcher.register",
		trace.WithAttributes(attribute.String("luastart.extension", ln.cfg.Extension.Name)))
	defer span.End()

	outcome := Register(ln.runtime, ln.cfg.Extension)
	if outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Message())
		ln.logf("register %s: %s", ln.cfg.Extension.Name, outcome.Message())
		return outcome
	}
	ln.advance(PhaseExtensionsRegistered)
	return outcome
}

func (ln *Launcher) publish(ctx context.Context, args Args) error {
	_, span := ln.tracer.Start(ctx, "launcher.publish")
	defer span.End()

	if err := Publish(ln.runtime, args, ln.cfg.MaxArgs); err != nil {
		return ln.fail(span, err)
	}
	ln.advance(PhaseArgumentsPublished)
	return nil
}

func (ln *Launcher) dispatch(ctx context.Context, args Args) Outcome {
	_, span := ln.tracer.Start(ctx, "launcher.dispatch",
		trace.WithAttributes(attribute.String("luastart.entry", ln.cfg.Entry.Name)))
	defer span.End()

	outcome := Dispatch(ln.runtime, ln.cfg.Entry, args)
	ln.advance(PhaseDispatched)
	if outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Message())
	}
	return outcome
}

func (ln *Launcher) advance(next Phase) {
	ln.logf("%s -> %s", ln.phase, next)
	ln.phase = next
}

func (ln *Launcher) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ln.logf("launch stopped in %s: %v", ln.phase, err)
	return err
}

func (ln *Launcher) logf(format string, args ...any) {
	if !ln.cfg.Verbose {
		return
	}
	ln.logger.Printf(format, args...)
}
