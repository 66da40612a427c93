package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"courierpulse/pkg/models"
)

// Evaluator compiles and runs CEL expressions over event envelopes. Rules use
// it through the "expr" condition node; the management service uses it to
// reject invalid expressions at save time.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("source", cel.StringType),
		// "type" would shadow CEL's built-in type() identifier, so the
		// envelope type is exposed as event_type.
		cel.Variable("event_type", cel.StringType),
		cel.Variable("timestamp", cel.TimestampType),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Compile returns a reusable program for a bool-typed expression. Programs
// are compiled once at rule-load time, never per event.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("condition expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

func (e *Evaluator) Eval(ctx context.Context, program cel.Program, event models.EventEnvelope) (bool, error) {
	vars := map[string]interface{}{
		"id":         event.ID,
		"source":     event.Source,
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
		"attributes": event.Attributes,
	}

	result, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
