package aslgraph

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/aslgraph/internal/compiler"
	"github.com/aretw0/aslgraph/internal/logging"
	"github.com/aretw0/aslgraph/internal/validator"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
	"github.com/aretw0/aslgraph/pkg/metrics"
)

// Version is the release of the compiler and its CLI.
const Version = "0.3.0"

// DefaultEntry names the entry state when the caller does not choose one.
const DefaultEntry = compiler.DefaultEntry

// ValidationError aggregates the problems found in a compiled machine.
type ValidationError = validator.ValidationError

// Finding is one problem found in a compiled machine.
type Finding = validator.Finding

// Findings returns the validation findings carried by err, or nil.
func Findings(err error) []Finding {
	return validator.Findings(err)
}

// Compiler turns fragment trees into complete state machines.
// A Compiler is safe for concurrent use: every compilation gets its own
// naming strategy.
type Compiler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	naming   func() graph.NamingStrategy
	entry    string
	validate bool
	parser   *compiler.Parser
}

// Option defines a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for pipeline diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithMetrics records compile durations and machine sizes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// WithNamer replaces the default naming of flattened states. The factory
// is called once per compilation.
func WithNamer(factory func() graph.NamingStrategy) Option {
	return func(c *Compiler) {
		c.naming = factory
	}
}

// WithEntry names the entry state, overriding the entry of compiled
// documents and DefaultEntry.
func WithEntry(entry string) Option {
	return func(c *Compiler) {
		c.entry = entry
	}
}

// WithoutValidation skips the final check of the compiled machine.
func WithoutValidation() Option {
	return func(c *Compiler) {
		c.validate = false
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:   logging.NewNop(),
		naming:   func() graph.NamingStrategy { return graph.NewNamer().Strategy() },
		validate: true,
		parser:   compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile synthesizes root into a machine starting at entry, or at the
// configured entry when it is empty. Transitions still deferred at the top
// level end the machine. When validation fails the machine is returned
// together with a *ValidationError, so callers can still render it.
func (c *Compiler) Compile(root graph.Fragment, entry string) (*asl.StateMachine, error) {
	return c.observe(func() (*asl.StateMachine, error) {
		states, err := c.synthesize(root, entry)
		if err != nil {
			return nil, err
		}
		return c.finish(&asl.StateMachine{StartAt: c.entryOf(entry), States: states})
	})
}

// CompileDocument parses a YAML or JSON fragment document and compiles it.
func (c *Compiler) CompileDocument(data []byte) (*asl.StateMachine, error) {
	return c.observe(func() (*asl.StateMachine, error) {
		doc, err := c.parser.Parse(data)
		if err != nil {
			return nil, err
		}
		entry := doc.Entry
		if c.entry != "" {
			entry = c.entry
		}
		states, err := c.synthesize(doc.Root, entry)
		if err != nil {
			return nil, err
		}
		return c.finish(&asl.StateMachine{
			Comment:        doc.Comment,
			StartAt:        entry,
			States:         states,
			TimeoutSeconds: doc.TimeoutSeconds,
		})
	})
}

func (c *Compiler) entryOf(entry string) string {
	switch {
	case entry != "":
		return entry
	case c.entry != "":
		return c.entry
	}
	return DefaultEntry
}

func (c *Compiler) observe(run func() (*asl.StateMachine, error)) (*asl.StateMachine, error) {
	start := time.Now()
	sm, err := run()
	c.metrics.ObserveCompile(time.Since(start).Seconds(), err)
	if err != nil {
		c.logger.Debug("compile failed", "error", err)
	}
	return sm, err
}

func (c *Compiler) synthesize(root graph.Fragment, entry string) (asl.States, error) {
	entry = c.entryOf(entry)
	if root == nil {
		return nil, fmt.Errorf("compile %q: nothing to compile: %w", entry, graph.ErrStructural)
	}

	resolved, err := graph.UpdateDeferredNextStates(graph.ToEnd(), root)
	if err != nil {
		return nil, fmt.Errorf("resolve deferred transitions: %w", err)
	}
	flat, err := graph.Flatten(entry, resolved, c.naming())
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	c.logger.Debug("flattened", "entry", entry, "states", len(flat))

	states, err := graph.Optimize(entry, flat)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	c.logger.Debug("optimized", "entry", entry, "states", len(states), "removed", len(flat)-len(states))
	c.metrics.ObserveStates(len(flat), len(states))
	return states, nil
}

func (c *Compiler) finish(sm *asl.StateMachine) (*asl.StateMachine, error) {
	if !c.validate {
		return sm, nil
	}
	return sm, validator.ValidateMachine(sm)
}
