package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	gocel "github.com/google/cel-go/cel"

	"courierpulse/pkg/cel"
	"courierpulse/pkg/models"
)

type ConditionKind string

const (
	KindAtomic ConditionKind = "atomic"
	KindAnd    ConditionKind = "and"
	KindOr     ConditionKind = "or"
	KindNot    ConditionKind = "not"
	KindExpr   ConditionKind = "expr"
)

const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpContains    = "contains"
	OpBetween     = "between"
)

var knownOperators = map[string]bool{
	OpEquals:      true,
	OpNotEquals:   true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpIn:          true,
	OpNotIn:       true,
	OpContains:    true,
	OpBetween:     true,
}

// Condition is one node of a rule's boolean condition tree. Trees are
// built by ConditionParser and never mutated afterwards.
type Condition struct {
	Kind ConditionKind

	// atomic
	Field    string
	Operator string
	Value    interface{}

	// and / or
	Children []*Condition

	// not
	Child *Condition

	// expr
	Expression string
	program    gocel.Program
	evaluator  *cel.Evaluator
}

// Diagnostic explains why an atomic resolved to false for reasons other
// than an honest non-match (missing field, type mismatch, bad operator).
type Diagnostic struct {
	Field    string
	Operator string
	Reason   string
}

type Diagnostics []Diagnostic

func (d *Diagnostics) add(field, operator, reason string) {
	*d = append(*d, Diagnostic{Field: field, Operator: operator, Reason: reason})
}

type rawCondition struct {
	Type       string          `json:"type"`
	Field      string          `json:"field,omitempty"`
	Operator   string          `json:"operator,omitempty"`
	Value      interface{}     `json:"value,omitempty"`
	Children   []rawCondition  `json:"children,omitempty"`
	Child      json.RawMessage `json:"child,omitempty"`
	Expression string          `json:"expression,omitempty"`
}

// ConditionParser turns the stored JSON form of a condition tree into a
// validated Condition. Unknown node types and operators are rejected
// here so evaluation never has to raise.
type ConditionParser struct {
	evaluator *cel.Evaluator
}

func NewConditionParser(evaluator *cel.Evaluator) *ConditionParser {
	return &ConditionParser{evaluator: evaluator}
}

func (p *ConditionParser) Parse(data []byte) (*Condition, error) {
	var raw rawCondition
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode condition tree: %w", err)
	}
	return p.parseNode(raw)
}

func (p *ConditionParser) parseNode(raw rawCondition) (*Condition, error) {
	switch ConditionKind(raw.Type) {
	case KindAtomic:
		if raw.Field == "" {
			return nil, fmt.Errorf("atomic condition missing field")
		}
		if !knownOperators[raw.Operator] {
			return nil, fmt.Errorf("unknown operator %q for field %q", raw.Operator, raw.Field)
		}
		if err := validateOperand(raw.Operator, raw.Value); err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Field, err)
		}
		return &Condition{
			Kind:     KindAtomic,
			Field:    raw.Field,
			Operator: raw.Operator,
			Value:    raw.Value,
		}, nil

	case KindAnd, KindOr:
		children := make([]*Condition, 0, len(raw.Children))
		for _, rc := range raw.Children {
			child, err := p.parseNode(rc)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &Condition{Kind: ConditionKind(raw.Type), Children: children}, nil

	case KindNot:
		if len(raw.Child) == 0 {
			return nil, fmt.Errorf("not condition missing child")
		}
		var rc rawCondition
		if err := json.Unmarshal(raw.Child, &rc); err != nil {
			return nil, fmt.Errorf("failed to decode not child: %w", err)
		}
		child, err := p.parseNode(rc)
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: KindNot, Child: child}, nil

	case KindExpr:
		if raw.Expression == "" {
			return nil, fmt.Errorf("expr condition missing expression")
		}
		program, err := p.evaluator.Compile(raw.Expression)
		if err != nil {
			return nil, err
		}
		return &Condition{
			Kind:       KindExpr,
			Expression: raw.Expression,
			program:    program,
			evaluator:  p.evaluator,
		}, nil

	default:
		return nil, fmt.Errorf("unknown condition type %q", raw.Type)
	}
}

func validateOperand(operator string, value interface{}) error {
	switch operator {
	case OpIn, OpNotIn:
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("operator %s requires a list operand", operator)
		}
	case OpBetween:
		list, ok := value.([]interface{})
		if !ok || len(list) != 2 {
			return fmt.Errorf("operator between requires a two-element list operand")
		}
	}
	return nil
}

// Evaluate walks the tree against one event. It is total: missing fields,
// type mismatches and runtime expression errors resolve to false and are
// reported through diags, never as an error.
func (c *Condition) Evaluate(ctx context.Context, event models.EventEnvelope, diags *Diagnostics) bool {
	switch c.Kind {
	case KindAtomic:
		return c.evaluateAtomic(event, diags)

	case KindAnd:
		for _, child := range c.Children {
			if !child.Evaluate(ctx, event, diags) {
				return false
			}
		}
		return true

	case KindOr:
		for _, child := range c.Children {
			if child.Evaluate(ctx, event, diags) {
				return true
			}
		}
		return false

	case KindNot:
		return !c.Child.Evaluate(ctx, event, diags)

	case KindExpr:
		result, err := c.evaluator.Eval(ctx, c.program, event)
		if err != nil {
			diags.add("", "expr", err.Error())
			return false
		}
		return result

	default:
		diags.add("", string(c.Kind), "unknown condition kind")
		return false
	}
}

func (c *Condition) evaluateAtomic(event models.EventEnvelope, diags *Diagnostics) bool {
	actual, ok := event.Attributes[c.Field]
	if !ok {
		diags.add(c.Field, c.Operator, "field not present in event")
		return false
	}

	switch c.Operator {
	case OpEquals:
		equal, comparable := valuesEqual(actual, c.Value)
		if !comparable {
			diags.add(c.Field, c.Operator, "operands are not comparable")
			return false
		}
		return equal
	case OpNotEquals:
		equal, comparable := valuesEqual(actual, c.Value)
		if !comparable {
			diags.add(c.Field, c.Operator, "operands are not comparable")
			return false
		}
		return !equal

	case OpGreaterThan:
		cmp, ok := compareOrdered(actual, c.Value)
		if !ok {
			diags.add(c.Field, c.Operator, "operands are not comparable")
			return false
		}
		return cmp > 0
	case OpLessThan:
		cmp, ok := compareOrdered(actual, c.Value)
		if !ok {
			diags.add(c.Field, c.Operator, "operands are not comparable")
			return false
		}
		return cmp < 0

	case OpIn, OpNotIn:
		list, ok := c.Value.([]interface{})
		if !ok {
			diags.add(c.Field, c.Operator, "operand is not a list")
			return false
		}
		found := false
		for _, item := range list {
			if equal, _ := valuesEqual(actual, item); equal {
				found = true
				break
			}
		}
		if c.Operator == OpIn {
			return found
		}
		return !found

	case OpContains:
		return evaluateContains(actual, c.Value, c.Field, diags)

	case OpBetween:
		bounds, ok := c.Value.([]interface{})
		if !ok || len(bounds) != 2 {
			diags.add(c.Field, c.Operator, "operand is not a two-element list")
			return false
		}
		low, okLow := compareOrdered(actual, bounds[0])
		high, okHigh := compareOrdered(actual, bounds[1])
		if !okLow || !okHigh {
			diags.add(c.Field, c.Operator, "operands are not comparable")
			return false
		}
		return low >= 0 && high <= 0

	default:
		diags.add(c.Field, c.Operator, "unknown operator")
		return false
	}
}

func evaluateContains(actual, operand interface{}, field string, diags *Diagnostics) bool {
	switch haystack := actual.(type) {
	case string:
		needle, ok := operand.(string)
		if !ok {
			diags.add(field, OpContains, "contains on a string requires a string operand")
			return false
		}
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	case []interface{}:
		for _, item := range haystack {
			if equal, _ := valuesEqual(item, operand); equal {
				return true
			}
		}
		return false
	default:
		diags.add(field, OpContains, "field is neither a string nor a list")
		return false
	}
}

// valuesEqual compares by normalized value. Strings compare
// case-insensitively, all numeric types compare as float64. The second
// result is false when the dynamic types cannot be compared at all,
// such as a JSON array or object on either side.
func valuesEqual(a, b interface{}) (bool, bool) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.EqualFold(as, bs), true
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf, true
		}
	}
	if a == nil || b == nil {
		return a == b, true
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false, false
	}
	return a == b, true
}

// compareOrdered compares two operands that are both numeric or both
// date-like. The second result is false when they are not comparable.
func compareOrdered(a, b interface{}) (int, bool) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
	}

	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
