package bootstrap

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Result is the outcome of one step.
type Result struct {
	Step    Step
	Err     error
	Skipped bool
}

// Executor runs steps sequentially and stops at the first failure.
type Executor struct {
	steps   []Step
	rc      *RepoContext
	opts    Options
	logger  *log.Logger
	results []Result
}

func NewExecutor(steps []Step, rc *RepoContext, opts Options, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		steps:  steps,
		rc:     rc,
		opts:   opts,
		logger: logger,
	}
}

func (e *Executor) Execute(ctx context.Context) error {
	e.results = make([]Result, 0, len(e.steps))

	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.executeStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) executeStep(ctx context.Context, step Step) error {
	if !step.Condition(e.rc) {
		e.log("skipping step (condition not met)", "step", step.Name())
		e.results = append(e.results, Result{Step: step, Skipped: true})
		return nil
	}

	if e.opts.DryRun {
		e.log("dry run: would execute step", "step", step.Name())
		e.results = append(e.results, Result{Step: step})
		return nil
	}

	e.log("executing step", "step", step.Name())
	if err := step.Run(ctx, e.rc, e.opts); err != nil {
		e.results = append(e.results, Result{Step: step, Err: err})
		return fmt.Errorf("step %s failed: %w", step.Name(), err)
	}
	e.results = append(e.results, Result{Step: step})
	return nil
}

func (e *Executor) log(msg string, keyvals ...any) {
	if e.opts.Verbose {
		e.logger.Info(msg, keyvals...)
		return
	}
	e.logger.Debug(msg, keyvals...)
}

func (e *Executor) Results() []Result {
	return e.results
}
