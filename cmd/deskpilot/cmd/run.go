// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/config"
	"github.com/deskpilot/deskpilot/internal/core/format"
	"github.com/deskpilot/deskpilot/internal/core/plan"
	"github.com/deskpilot/deskpilot/internal/desktop"
	"github.com/deskpilot/deskpilot/internal/desktop/browser"
	"github.com/deskpilot/deskpilot/internal/orchestrator"
	"github.com/deskpilot/deskpilot/internal/planner"
	"github.com/deskpilot/deskpilot/internal/policy"
	"github.com/deskpilot/deskpilot/internal/store"
	"github.com/deskpilot/deskpilot/internal/vision"
)

func getRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a natural language command against the desktop",
		Long: `Run translates a command into a validated action plan and executes it.
With --command the plan runs once and deskpilot exits; with --plan-file a
pre-generated candidate plan is validated and executed without calling the
planner; with neither, deskpilot reads commands interactively until 'quit'
or 'exit'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, _ := cmd.Flags().GetString("command")
			planFile, _ := cmd.Flags().GetString("plan-file")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			useYAML, _ := cmd.Flags().GetBool("yaml")
			savePlan, _ := cmd.Flags().GetString("save-plan")
			configPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			app, err := newApp(cfg, verbose, planFile == "" && !dryRun)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			switch {
			case planFile != "":
				return app.runPlanFile(ctx, planFile, dryRun, useYAML)
			case command != "":
				return app.runCommand(ctx, command, dryRun, useYAML, savePlan)
			default:
				return app.runInteractive(ctx, dryRun, useYAML)
			}
		},
	}

	runCmd.Flags().StringP("command", "c", "", "Execute a single command and exit")
	runCmd.Flags().StringP("plan-file", "p", "", "Validate and execute a candidate plan file (YAML or JSON)")
	runCmd.Flags().BoolP("dry-run", "d", false, "Validate the plan and show its steps without executing")
	runCmd.Flags().Bool("yaml", false, "Render outcome and history as YAML instead of JSON")
	runCmd.Flags().String("save-plan", "", "Write the generated candidate plan to a file before executing")

	return runCmd
}

// app bundles the wired collaborators for one run invocation.
type app struct {
	cfg       *config.Config
	registry  *action.Registry
	validator *plan.Validator
	guard     *policy.Guard
	generator planner.Generator
	provider  *browser.Provider
	runs      *store.RunStore
	logger    *slog.Logger
	verbose   bool
}

// newApp wires the engine. The browser and planner are only brought up when
// execution will actually happen (withDesktop).
func newApp(cfg *config.Config, verbose, withDesktop bool) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry := action.NewRegistry()

	guard, err := policy.NewGuard(cfg.Policy)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		registry:  registry,
		validator: plan.NewValidator(registry),
		guard:     guard,
		logger:    logger,
		verbose:   verbose,
	}

	if !withDesktop {
		return a, nil
	}

	generator, err := planner.NewOpenAIGenerator(cfg.Planner, registry)
	if err != nil {
		return nil, err
	}
	a.generator = generator

	var analyzer vision.Analyzer
	if cfg.Analyzer != nil {
		model, err := planner.NewChatModel(*cfg.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("error creating analyzer model: %w", err)
		}
		analyzer = vision.NewModelAnalyzer(model)
	}
	a.provider = browser.New(cfg.Browser, analyzer)

	if cfg.History.Enabled {
		runs, err := store.NewRunStore(config.ExpandPathWithTilde(cfg.History.Path))
		if err != nil {
			return nil, err
		}
		a.runs = runs
	}

	return a, nil
}

func (a *app) close() {
	if a.provider != nil {
		a.provider.Close()
	}
	if a.runs != nil {
		a.runs.Close()
	}
}

// newOrchestrator builds a fresh orchestrator over the shared provider. One
// orchestrator handles one plan at a time.
func (a *app) newOrchestrator(provider desktop.Provider) *orchestrator.Orchestrator {
	opts := orchestrator.Options{
		SettleDelay: time.Duration(a.cfg.Execution.SettleDelayMS) * time.Millisecond,
		Logger:      a.logger,
	}
	if a.verbose {
		opts.Observer = func(index, total int, act action.Action) {
			fmt.Printf("Executing step %d/%d: %s\n", index+1, total, act.Kind())
			if reason := act.Purpose(); reason != "" {
				fmt.Printf("  Reason: %s\n", reason)
			}
		}
	}
	return orchestrator.New(provider, a.generator, a.validator, a.guard, opts)
}

func (a *app) runCommand(ctx context.Context, command string, dryRun, useYAML bool, savePlan string) error {
	if dryRun {
		return a.dryRunCommand(ctx, command, useYAML)
	}

	if err := a.provider.Start(ctx); err != nil {
		return err
	}

	if savePlan != "" {
		candidate, err := a.generator.Generate(ctx, command)
		if err != nil {
			return fmt.Errorf("no plan produced: %w", err)
		}
		if err := format.WriteFile(savePlan, map[string]interface{}{"plan": candidate}); err != nil {
			return err
		}
		validated, err := a.validator.Validate(candidate)
		if err != nil {
			return err
		}
		if err := a.guard.Check(validated); err != nil {
			return err
		}
		outcome, history := a.newOrchestrator(a.provider).Run(ctx, validated)
		return a.report(command, outcome, history, useYAML)
	}

	outcome, history, err := a.newOrchestrator(a.provider).RunCommand(ctx, command)
	if err != nil {
		return err
	}
	return a.report(command, outcome, history, useYAML)
}

// dryRunCommand generates and validates a plan, prints the typed steps, and
// never touches the desktop.
func (a *app) dryRunCommand(ctx context.Context, command string, useYAML bool) error {
	generator, err := planner.NewOpenAIGenerator(a.cfg.Planner, a.registry)
	if err != nil {
		return err
	}
	candidate, err := generator.Generate(ctx, command)
	if err != nil {
		return fmt.Errorf("no plan produced: %w", err)
	}
	validated, err := a.validator.Validate(candidate)
	if err != nil {
		return err
	}
	if err := a.guard.Check(validated); err != nil {
		return err
	}

	fmt.Printf("Plan validated: %d steps. No actions executed.\n", validated.Len())
	return a.printSteps(validated, useYAML)
}

func (a *app) runPlanFile(ctx context.Context, planFile string, dryRun, useYAML bool) error {
	var document interface{}
	if err := format.ParseFile(planFile, &document); err != nil {
		return err
	}

	validated, err := a.validator.Validate(unwrapCandidate(document))
	if err != nil {
		return err
	}
	if err := a.guard.Check(validated); err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("Plan validated: %d steps. No actions executed.\n", validated.Len())
		return a.printSteps(validated, useYAML)
	}

	provider := browser.New(a.cfg.Browser, nil)
	if err := provider.Start(ctx); err != nil {
		return err
	}
	defer provider.Close()

	outcome, history := a.newOrchestrator(provider).Run(ctx, validated)
	return a.report(planFile, outcome, history, useYAML)
}

func (a *app) runInteractive(ctx context.Context, dryRun, useYAML bool) error {
	if !dryRun {
		if err := a.provider.Start(ctx); err != nil {
			return err
		}
	}

	fmt.Println("Deskpilot - enter a command, or 'quit' to exit:")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		if lowered := strings.ToLower(command); lowered == "quit" || lowered == "exit" {
			break
		}

		var err error
		if dryRun {
			err = a.dryRunCommand(ctx, command, useYAML)
		} else {
			err = a.runCommand(ctx, command, false, useYAML, "")
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

// report prints the outcome and history, and persists them when the run
// store is enabled. A persistence failure is logged, not fatal: the user
// already has the result.
func (a *app) report(command string, outcome orchestrator.Outcome, history orchestrator.History, useYAML bool) error {
	if a.runs != nil {
		if err := a.runs.SaveRun(command, outcome, history); err != nil {
			a.logger.Error("failed to persist run", "error", err)
		}
	}

	rendered, err := format.FormatData(map[string]interface{}{
		"outcome": outcome,
		"history": history,
	}, useYAML)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

func (a *app) printSteps(p plan.Plan, useYAML bool) error {
	steps := make([]map[string]interface{}, 0, p.Len())
	for i, act := range p.Actions {
		steps = append(steps, map[string]interface{}{
			"index":  i,
			"kind":   act.Kind(),
			"reason": act.Purpose(),
		})
	}
	rendered, err := format.FormatData(steps, useYAML)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// unwrapCandidate accepts both a bare step array and the {"plan": [...]}
// wrapper in plan files, mirroring what the generator may produce.
func unwrapCandidate(document interface{}) interface{} {
	wrapper, ok := document.(map[string]interface{})
	if !ok {
		return document
	}
	for _, key := range []string{"plan", "steps"} {
		if steps, ok := wrapper[key]; ok {
			return steps
		}
	}
	return document
}
