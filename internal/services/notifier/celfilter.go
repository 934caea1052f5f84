package notifier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

// ErrInvalidAudience is returned when an audience expression does not
// compile to a boolean.
var ErrInvalidAudience = errors.New("invalid audience expression")

// audienceFilter is a compiled CEL predicate over subscriptions. A disabled
// filter keeps every record.
//
// Variables:
//
//	endpoint       string
//	host           string  push service host
//	created_at_ms  int
//	age_ms         int     now_ms - created_at_ms
//	now_ms         int
type audienceFilter struct {
	prog    cel.Program
	enabled bool
	now     func() time.Time
}

func newAudienceFilter(expr string, now func() time.Time) (audienceFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return audienceFilter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("endpoint", cel.StringType),
		cel.Variable("host", cel.StringType),
		cel.Variable("created_at_ms", cel.IntType),
		cel.Variable("age_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return audienceFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return audienceFilter{}, fmt.Errorf("%w: %w", ErrInvalidAudience, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return audienceFilter{}, fmt.Errorf("%w: expression must be boolean, got %s", ErrInvalidAudience, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return audienceFilter{}, fmt.Errorf("%w: %w", ErrInvalidAudience, err)
	}
	return audienceFilter{prog: prog, enabled: true, now: now}, nil
}

// Keep evaluates the filter. Evaluation errors exclude the record.
func (f audienceFilter) Keep(rec subscription.Record) bool {
	if !f.enabled {
		return true
	}
	nowMs := f.now().UnixMilli()
	created := rec.CreatedAt.UnixMilli()
	out, _, err := f.prog.Eval(map[string]any{
		"endpoint":      rec.Endpoint,
		"host":          rec.Host(),
		"created_at_ms": created,
		"age_ms":        nowMs - created,
		"now_ms":        nowMs,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
