package rules

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// RollFunc draws a uniform integer in [lo, hi]. It is injected so formula
// evaluation stays deterministic under test.
type RollFunc func(lo, hi int) int

// FormulaContext is the data a use-effect formula may read.
type FormulaContext struct {
	Skills map[Skill]int
	Honor  int
	Power  int
}

// Evaluator wraps a CEL environment configured for item formulas.
type Evaluator struct {
	env *cel.Env

	mu    sync.Mutex
	progs map[string]cel.Program
}

func newEnv(roll RollFunc) (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("skills", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("honor", cel.IntType),
		cel.Variable("power", cel.IntType),
		cel.Function("roll",
			cel.Overload("roll_int_int",
				[]*cel.Type{cel.IntType, cel.IntType},
				cel.IntType,
				cel.BinaryBinding(func(lo, hi ref.Val) ref.Val {
					return types.Int(roll(int(lo.Value().(int64)), int(hi.Value().(int64))))
				}),
			),
		),
	)
}

// NewEvaluator creates the CEL environment. A nil roll uses math/rand.
func NewEvaluator(roll RollFunc) (*Evaluator, error) {
	if roll == nil {
		roll = defaultRoll
	}
	env, err := newEnv(roll)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, progs: make(map[string]cel.Program)}, nil
}

// CheckFormula compiles a formula and verifies it yields an int.
func CheckFormula(formula string) error {
	env, err := newEnv(defaultRoll)
	if err != nil {
		return err
	}
	ast, iss := env.Compile(formula)
	if iss != nil && iss.Err() != nil {
		return iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.IntType) {
		return fmt.Errorf("formula must produce an int, got %s", ast.OutputType())
	}
	return nil
}

func (ev *Evaluator) program(formula string) (cel.Program, error) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	if prg, ok := ev.progs[formula]; ok {
		return prg, nil
	}
	ast, iss := ev.env.Compile(formula)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", iss.Err())
	}
	prg, err := ev.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}
	ev.progs[formula] = prg
	return prg, nil
}

// EvalInt evaluates an integer formula against the given context.
func (ev *Evaluator) EvalInt(formula string, fc FormulaContext) (int, error) {
	prg, err := ev.program(formula)
	if err != nil {
		return 0, err
	}
	skills := make(map[string]any, len(fc.Skills))
	for k, v := range fc.Skills {
		skills[string(k)] = int64(v) // CEL uses int64 for integers
	}
	out, _, err := prg.Eval(map[string]any{
		"skills": skills,
		"honor":  int64(fc.Honor),
		"power":  int64(fc.Power),
	})
	if err != nil {
		return 0, fmt.Errorf("CEL eval error: %w", err)
	}
	n, ok := out.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("formula %q produced %T, want int", formula, out.Value())
	}
	return int(n), nil
}

func defaultRoll(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}
