package logfeed

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Predicate reports whether an entry matches a filter.
type Predicate func(Entry) bool

// FilterDeclarations returns the identifiers a log filter may reference.
func FilterDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("id", filtering.TypeString),
		filtering.DeclareIdent("level", filtering.TypeString),
		filtering.DeclareIdent("text", filtering.TypeString),
		filtering.DeclareIdent("ts", filtering.TypeInt),
		filtering.DeclareIdent("time", filtering.TypeTimestamp),
	)
}

// ParseFilter compiles an AIP-160 filter such as
// `level = "warn" AND ts > 1700000000000` into a predicate. An empty filter
// matches everything.
func ParseFilter(filterStr string) (Predicate, error) {
	if strings.TrimSpace(filterStr) == "" {
		return func(Entry) bool { return true }, nil
	}
	decls, err := FilterDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	return compileExpr(filter.CheckedExpr.GetExpr())
}

// Filter returns the retained entries matching filterStr, oldest first.
func (f *Feed) Filter(filterStr string) ([]Entry, error) {
	match, err := ParseFilter(filterStr)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, entry := range f.Entries() {
		if match(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func compileExpr(e *expr.Expr) (Predicate, error) {
	if e == nil {
		return func(Entry) bool { return true }, nil
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return compileCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func compileCall(call *expr.Expr_Call) (Predicate, error) {
	switch call.Function {
	case "_&&_", "AND", "FUZZY":
		return compileLogical(call.Args, func(a, b bool) bool { return a && b })
	case "_||_", "OR":
		return compileLogical(call.Args, func(a, b bool) bool { return a || b })
	case "!_", "NOT":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := compileExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		return func(entry Entry) bool { return !inner(entry) }, nil
	case "_==_", "=":
		return compileComparison(call.Args, func(c int) bool { return c == 0 })
	case "_!=_", "!=":
		return compileComparison(call.Args, func(c int) bool { return c != 0 })
	case "_<_", "<":
		return compileComparison(call.Args, func(c int) bool { return c < 0 })
	case "_<=_", "<=":
		return compileComparison(call.Args, func(c int) bool { return c <= 0 })
	case "_>_", ">":
		return compileComparison(call.Args, func(c int) bool { return c > 0 })
	case "_>=_", ">=":
		return compileComparison(call.Args, func(c int) bool { return c >= 0 })
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func compileLogical(args []*expr.Expr, combine func(a, b bool) bool) (Predicate, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}
	parts := make([]Predicate, 0, len(args))
	for _, arg := range args {
		part, err := compileExpr(arg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return func(entry Entry) bool {
		result := parts[0](entry)
		for _, part := range parts[1:] {
			result = combine(result, part(entry))
		}
		return result
	}, nil
}

// compileComparison supports `field op value` with the field on the left.
func compileComparison(args []*expr.Expr, accept func(cmp int) bool) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}
	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}

	switch field {
	case "id", "level", "text":
		want, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s expects a string", field)
		}
		get := stringField(field)
		return func(entry Entry) bool { return accept(strings.Compare(get(entry), want)) }, nil
	case "ts":
		want, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("field ts expects an integer")
		}
		return func(entry Entry) bool { return accept(compareInt(entry.TS, want)) }, nil
	case "time":
		want, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("field time expects a timestamp")
		}
		return func(entry Entry) bool {
			return accept(compareInt(entry.TS, want.UnixMilli()))
		}, nil
	default:
		return nil, fmt.Errorf("unknown field: %s", field)
	}
}

func stringField(field string) func(Entry) string {
	switch field {
	case "id":
		return func(e Entry) string { return e.ID }
	case "level":
		return func(e Entry) string { return string(e.Level) }
	default:
		return func(e Entry) string { return e.Text }
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}
	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	constExpr, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	str, ok := constExpr.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, str.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", str.StringValue)
	}
	return t.UTC(), nil
}
