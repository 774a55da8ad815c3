package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/zbitvector"
	"github.com/benbjohnson/zbitvector/sat"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when a check does not match its expected result.
var ErrCheckFailed = errors.New("check failed")

// CheckCommand represents a command for solving problem files.
type CheckCommand struct {
	main *Main

	Timeout time.Duration
	Model   bool
	Dump    bool
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand(m *Main) *CheckCommand {
	return &CheckCommand{main: m}
}

// Cobra returns the cobra command bound to cmd.
func (cmd *CheckCommand) Cobra() *cobra.Command {
	c := &cobra.Command{
		Use:   "check FILE...",
		Short: "solve problem files",
		Long: `Check loads each YAML problem file, declares its vars, adds its assert
expressions to a solver and runs every check against them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), args)
		},
	}
	c.Flags().DurationVar(&cmd.Timeout, "timeout", 0, "per-check timeout; overrides the file's timeout")
	c.Flags().BoolVar(&cmd.Model, "model", false, "print a witness for every var after a satisfiable check")
	c.Flags().BoolVar(&cmd.Dump, "dump", false, "dump each parsed problem before solving")
	return c
}

// Run executes the "check" subcommand.
func (cmd *CheckCommand) Run(ctx context.Context, paths []string) error {
	var failed int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := cmd.checkFile(path)
		if err != nil {
			return err
		}
		failed += n
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d check(s) did not match", ErrCheckFailed, failed)
	}
	return nil
}

// checkFile solves a single problem file and returns the number of checks
// whose result differs from the expected one.
func (cmd *CheckCommand) checkFile(path string) (int, error) {
	p, err := ReadProblemFile(path)
	if err != nil {
		return 0, err
	}

	if cmd.Dump {
		cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
		cfg.Fdump(cmd.main.Stdout, p)
	}

	timeout := time.Duration(p.Timeout)
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}

	logger := cmd.main.Logger().With(slog.String("file", path))
	s := zbitvector.NewSession(sat.New(sat.Config{Timeout: timeout}), zbitvector.WithLogger(logger))

	e, err := NewEvaluator(s, p.Vars)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	solver := s.NewSolver()
	for _, src := range p.Assert {
		c, err := e.Constraint(src)
		if err != nil {
			return 0, fmt.Errorf("%s: assert %w", path, err)
		}
		solver.Add(c)
	}

	var failed int
	for i, check := range p.Checks {
		assumptions := make([]zbitvector.Constraint, len(check.Assume))
		for j, src := range check.Assume {
			if assumptions[j], err = e.Constraint(src); err != nil {
				return 0, fmt.Errorf("%s: check %q: %w", path, check.Label(i), err)
			}
		}

		ok, err := solver.Check(assumptions...)
		if err != nil {
			return 0, fmt.Errorf("%s: check %q: %w", path, check.Label(i), err)
		}

		got := "unsat"
		if ok {
			got = "sat"
		}
		fmt.Fprintf(cmd.main.Stdout, "%s: %s\n", check.Label(i), got)

		if ok && cmd.Model {
			if err := cmd.printModel(s, e, p); err != nil {
				return 0, err
			}
		}

		if check.Want != "" && check.Want != got {
			logger.Warn("unexpected result", slog.String("check", check.Label(i)), slog.String("want", check.Want), slog.String("got", got))
			failed++
		}
	}
	return failed, nil
}

func (cmd *CheckCommand) printModel(s *zbitvector.Session, e *Evaluator, p *Problem) error {
	for _, name := range p.VarNames() {
		x, _ := e.Var(name)
		v, err := s.Eval(x)
		if err != nil {
			return err
		}
		if x.Kind().Class == zbitvector.BoolClass {
			fmt.Fprintf(cmd.main.Stdout, "  %s = %t\n", name, v.Sign() != 0)
			continue
		}
		fmt.Fprintf(cmd.main.Stdout, "  %s = %s\n", name, v)
	}
	return nil
}
