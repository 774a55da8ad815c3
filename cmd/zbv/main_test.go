package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benbjohnson/zbitvector"
	"github.com/benbjohnson/zbitvector/sat"
	"github.com/google/go-cmp/cmp"
)

func TestRun_Check(t *testing.T) {
	t.Run("Bounds", func(t *testing.T) {
		stdout := MustRun(t, "check", "testdata/bounds.yaml")
		if diff := cmp.Diff(stdout, "above three: sat\nabove twenty: unsat\n"); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Arith", func(t *testing.T) {
		stdout := MustRun(t, "check", "testdata/arith.yaml")
		if diff := cmp.Diff(stdout, strings.Join([]string{
			"unsigned division: unsat",
			"signed remainder: unsat",
			"zero extension round trip: unsat",
			"sign extension round trip: unsat",
			"widening keeps the value: unsat",
			"shifts: sat",
			"",
		}, "\n")); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Model", func(t *testing.T) {
		stdout := MustRun(t, "check", "--model", "testdata/model.yaml")
		if diff := cmp.Diff(stdout, "witness: sat\n  p = true\n  x = -5\n  y = 252\n"); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Dump", func(t *testing.T) {
		stdout := MustRun(t, "check", "--dump", "testdata/bounds.yaml")
		if !strings.Contains(stdout, `Assert: ([]string) (len=1`) {
			t.Fatalf("unexpected dump: %s", stdout)
		}
	})

	t.Run("ErrCheckFailed", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run(context.Background(), []string{"check", "testdata/mismatch.yaml"}, &stdout, &stderr)
		if !errors.Is(err, ErrCheckFailed) {
			t.Fatalf("unexpected error: %v", err)
		} else if diff := cmp.Diff(stdout.String(), "impossible: unsat\n"); diff != "" {
			t.Fatal(diff)
		} else if !strings.Contains(stderr.String(), "unexpected result") {
			t.Fatalf("unexpected log: %s", stderr.String())
		}
	})

	t.Run("ErrFileNotFound", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), []string{"check", "testdata/no_such_file.yaml"}, &stdout, &stderr); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("ErrNoArgs", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), []string{"check"}, &stdout, &stderr); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRun_Version(t *testing.T) {
	if diff := cmp.Diff(MustRun(t, "version"), "zbv (development build)\n"); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseExpr(t *testing.T) {
	t.Run("StripParens", func(t *testing.T) {
		expr, err := ParseExpr("((x) + (1))")
		if err != nil {
			t.Fatal(err)
		}
		e := MustNewEvaluator(t, map[string]string{"x": "uint8"})
		if v, err := e.eval(expr); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(v.(bitvec).symbolic().String(), "Uint8(`(bvadd x #x01)`)"); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("ErrUnsupported", func(t *testing.T) {
		for _, src := range []string{`x.y`, `a[0]`, `"s"`, `1.5`, `func() {}`} {
			if _, err := ParseExpr(src); err == nil {
				t.Fatalf("%s: expected error", src)
			}
		}
	})

	t.Run("ErrSyntax", func(t *testing.T) {
		if _, err := ParseExpr("x +"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestEvaluator_Constraint(t *testing.T) {
	e := MustNewEvaluator(t, map[string]string{"x": "uint8", "y": "int8", "p": "bool"})

	t.Run("OK", func(t *testing.T) {
		for _, src := range []string{
			"x < 10",
			"-1 < y",
			"p && !p || true",
			"x &^ 0x0F == 0",
			"int16(y) >= -128",
			"^x != 0xFF",
			"uint16(300) > uint16(x)",
			"1 < 2",
			"y >> 200 <= 0",
			"x << 8 == 0",
			"(1 << 3) + x != ^-9",
		} {
			if _, err := e.Constraint(src); err != nil {
				t.Fatalf("%s: %s", src, err)
			}
		}
	})

	t.Run("Err", func(t *testing.T) {
		for _, tt := range []struct {
			src string
			err string
		}{
			{"x + 1", "is not a constraint"},
			{"x < y", "mismatched types uint8 and int8"},
			{"x < 256", "constant 256 overflows uint8"},
			{"y > -129", "constant -129 overflows int8"},
			{"1 / 0 == 0", "division by zero"},
			{"x >> -1 == 0", "invalid negative shift count -1"},
			{"1 << 2000 == 0", "shift count 2000 too large"},
			{"z == 1", "undefined: z"},
			{"bool(x)", "is not a bit-vector type"},
			{"p + p", "invalid operator + on bool"},
			{"p == x", "mismatched types bool and uint8"},
			{"x << uint16(1) == 0", "invalid shift count type uint16"},
		} {
			if _, err := e.Constraint(tt.src); err == nil || !strings.Contains(err.Error(), tt.err) {
				t.Fatalf("%s: unexpected error: %v", tt.src, err)
			}
		}
	})
}

func TestEvaluator_Constraint_Solve(t *testing.T) {
	for _, tt := range []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 1", false},
		{"(7 - 10) / 2 == -1", true},
		{"y < 0 && y >> 200 != -1", false},
		{"y >= 0 && y >> 200 != 0", false},
		{"x >> 8 != 0", false},
		{"x << 255 != 0", false},
		{"x >> 3 == 31", true},
	} {
		t.Run(tt.src, func(t *testing.T) {
			e := MustNewEvaluator(t, map[string]string{"x": "uint8", "y": "int8"})
			c, err := e.Constraint(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if ok, err := e.session.NewSolver().Check(c); err != nil {
				t.Fatal(err)
			} else if ok != tt.want {
				t.Fatalf("got %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestReadProblemFile(t *testing.T) {
	p, err := ReadProblemFile("testdata/bounds.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p, &Problem{
		Timeout: Duration(10e9),
		Vars:    map[string]string{"x": "uint32"},
		Assert:  []string{"x < 10"},
		Checks: []Check{
			{Name: "above three", Assume: []string{"x > 3"}, Want: "sat"},
			{Name: "above twenty", Assume: []string{"x > 20"}, Want: "unsat"},
		},
	}); diff != "" {
		t.Fatal(diff)
	}

	t.Run("ErrUnknownType", func(t *testing.T) {
		p := &Problem{Vars: map[string]string{"x": "float64"}}
		if err := p.Validate(); err == nil || !strings.Contains(err.Error(), `unknown type "float64"`) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrWant", func(t *testing.T) {
		p := &Problem{Checks: []Check{{Want: "maybe"}}}
		if err := p.Validate(); err == nil || !strings.Contains(err.Error(), `check "check#1": invalid want "maybe"`) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// MustRun executes the command line and returns stdout. Fails on error.
func MustRun(tb testing.TB, args ...string) string {
	tb.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		tb.Fatalf("%v: %s", err, stderr.String())
	}
	return stdout.String()
}

// MustNewEvaluator returns an evaluator over a fresh session. Fails on error.
func MustNewEvaluator(tb testing.TB, vars map[string]string) *Evaluator {
	tb.Helper()
	e, err := NewEvaluator(zbitvector.NewSession(sat.New(sat.Config{})), vars)
	if err != nil {
		tb.Fatal(err)
	}
	return e
}
