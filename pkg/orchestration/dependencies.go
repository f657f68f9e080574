// Package orchestration runs the editing state machine: intent check, plan,
// then iterate oracle calls through parse, execute, verify, checkpoint and
// completion evaluation until the goal is met or a budget runs out.
package orchestration

import (
	"fmt"

	"github.com/quillworks/autoedit/pkg/completion"
	"github.com/quillworks/autoedit/pkg/config"
	"github.com/quillworks/autoedit/pkg/events"
	"github.com/quillworks/autoedit/pkg/intent"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/parser"
	"github.com/quillworks/autoedit/pkg/tools"
	"github.com/quillworks/autoedit/pkg/utils"
	"github.com/quillworks/autoedit/pkg/verifier"
)

// Dependencies collects the collaborators a Runner needs. Oracle and Config
// are required; Intent, Bus and Logger are optional. The remaining fields
// default to the standard implementations when left nil.
//
// The Executor (and the circuit breaker inside it) is the only component
// shared across concurrent runs; everything else is either stateless or
// created per run.
type Dependencies struct {
	Oracle     oracle.Oracle
	Config     *config.Config
	Intent     *intent.Detector
	Parser     *parser.Parser
	Executor   *tools.Executor
	Verifier   *verifier.Verifier
	Completion *completion.Detector
	Bus        *events.Bus
	Logger     *utils.Logger
}

func (d *Dependencies) validate() error {
	if d.Oracle == nil {
		return fmt.Errorf("orchestration requires an oracle")
	}
	if d.Config == nil {
		return fmt.Errorf("orchestration requires a config")
	}
	return nil
}

func (d *Dependencies) applyDefaults() {
	if d.Parser == nil {
		d.Parser = parser.New()
	}
	if d.Executor == nil {
		breaker := tools.NewCircuitBreaker(d.Config.CircuitThreshold, d.Config.CircuitCooldown())
		d.Executor = tools.NewExecutor(tools.NewDefaultRegistry(), breaker, d.Logger,
			d.Config.RetryBaseDelay(), d.Config.RetryMultiplier)
	}
	if d.Verifier == nil {
		d.Verifier = verifier.New()
	}
	if d.Completion == nil {
		d.Completion = completion.NewDetector()
	}
}
