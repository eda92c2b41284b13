// Package code is the audited compilation boundary for legacy string-based
// agents. The legacy format supplies bootstrap/execute logic as source text;
// instead of evaluating arbitrary code, this package accepts a restricted
// shape — an optional function/arrow wrapper around a body whose effective
// statement is `return <expression>;` — and compiles it into an ordinary
// callable. Expressions may be object or array literals, scalar literals,
// or govaluate expressions referencing `params.*`, `context.*` and
// `config.*`. Everything outside that shape fails compilation, and the
// loader then installs a safe fallback rather than aborting the load.
package code

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/agentpilot/agentpilot/core"
)

var (
	// Matches a leading function or arrow wrapper with a braced body.
	wrapperRe = regexp.MustCompile(`^(?:async\s+)?(?:function\s*[\w$]*\s*\([^)]*\)|\([^)]*\)\s*=>|[\w$]+\s*=>)\s*\{`)

	// Matches a braceless arrow whose body is a bare expression.
	arrowExprRe = regexp.MustCompile(`^(?:async\s+)?(?:\([^)]*\)|[\w$]+)\s*=>\s*([^{].*)$`)

	// Rewrites dotted references into the flattened variable names the
	// evaluator binds (params.x -> params_x).
	refRe = regexp.MustCompile(`\b(params|context|config)\.([A-Za-z_$][\w$]*)`)

	lineCommentRe = regexp.MustCompile(`//[^\n]*`)
)

// Normalize strips common wrapper syntax from legacy source text, returning
// the function body. Braceless arrow bodies are rewritten into an explicit
// return statement.
func Normalize(src string) string {
	s := strings.TrimSpace(src)
	if loc := wrapperRe.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[loc[1]:])
		s = strings.TrimSuffix(s, ";")
		s = strings.TrimSpace(strings.TrimSuffix(s, "}"))
		return s
	}
	if m := arrowExprRe.FindStringSubmatch(s); m != nil {
		return "return " + strings.TrimSpace(m[1]) + ";"
	}
	return s
}

// Compile turns legacy execute source into an ExecuteFunc. Compilation
// errors are reported to the caller (the loader degrades them to the safe
// fallback); runtime evaluation errors surface as execute failures.
func Compile(src string) (core.ExecuteFunc, error) {
	n, err := compileSource(src)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, params map[string]any, ec *core.ExecContext) (any, error) {
		return n.eval(bindVars(params, nil, ec))
	}, nil
}

// CompileBootstrap turns legacy bootstrap source into a BootstrapFunc. The
// evaluated payload follows the legacy convention of reporting success as a
// field: a map with success=false is treated as a bootstrap failure.
func CompileBootstrap(src string) (core.BootstrapFunc, error) {
	n, err := compileSource(src)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, config map[string]any, ec *core.ExecContext) error {
		out, err := n.eval(bindVars(nil, config, ec))
		if err != nil {
			return err
		}
		if m, ok := out.(map[string]any); ok {
			if success, ok := m["success"].(bool); ok && !success {
				if msg, ok := m["error"].(string); ok && msg != "" {
					return fmt.Errorf("%s", msg)
				}
				return fmt.Errorf("bootstrap reported failure")
			}
		}
		return nil
	}, nil
}

// Fallback returns the execute installed when no valid legacy code was
// provided. It reports the failure in its payload instead of erroring so a
// misconfigured agent never hard-fails the orchestrator.
func Fallback() core.ExecuteFunc {
	return func(context.Context, map[string]any, *core.ExecContext) (any, error) {
		return map[string]any{"success": false, "error": core.ErrNoExecuteCode}, nil
	}
}

func compileSource(src string) (node, error) {
	body := lineCommentRe.ReplaceAllString(Normalize(src), "")
	body = strings.Join(strings.Fields(body), " ")
	if body == "" {
		return nil, fmt.Errorf("empty code body")
	}
	if !strings.HasPrefix(body, "return ") && body != "return" {
		return nil, fmt.Errorf("unsupported code shape: expected a return statement")
	}
	expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(body, "return"), ";"))
	if expr == "" {
		return nil, fmt.Errorf("return statement has no expression")
	}
	return compileExpr(expr)
}

// node is a compiled expression fragment.
type node interface {
	eval(vars map[string]any) (any, error)
}

type litNode struct{ v any }

func (n litNode) eval(map[string]any) (any, error) { return n.v, nil }

type exprNode struct{ ee *govaluate.EvaluableExpression }

func (n exprNode) eval(vars map[string]any) (any, error) {
	return n.ee.Evaluate(vars)
}

type objNode struct {
	keys []string
	vals []node
}

func (n objNode) eval(vars map[string]any) (any, error) {
	out := make(map[string]any, len(n.keys))
	for i, k := range n.keys {
		v, err := n.vals[i].eval(vars)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

type arrNode struct{ items []node }

func (n arrNode) eval(vars map[string]any) (any, error) {
	out := make([]any, len(n.items))
	for i, item := range n.items {
		v, err := item.eval(vars)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func compileExpr(expr string) (node, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "null", expr == "undefined":
		return litNode{v: nil}, nil
	case strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}"):
		return compileObject(expr)
	case strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]"):
		return compileArray(expr)
	case strings.HasPrefix(expr, `"`) && strings.HasSuffix(expr, `"`) && len(expr) >= 2:
		s, err := strconv.Unquote(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s: %w", expr, err)
		}
		return litNode{v: s}, nil
	}
	ee, err := govaluate.NewEvaluableExpression(rewriteRefs(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	return exprNode{ee: ee}, nil
}

// rewriteRefs applies the dotted-reference rewrite outside quoted regions
// only, so string literals mentioning params.x keep their text.
func rewriteRefs(expr string) string {
	var b strings.Builder
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				b.WriteString(expr[start : i+1])
				start = i + 1
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			b.WriteString(refRe.ReplaceAllString(expr[start:i], "${1}_${2}"))
			start = i
			quote = c
		}
	}
	if quote == 0 {
		b.WriteString(refRe.ReplaceAllString(expr[start:], "${1}_${2}"))
	} else {
		b.WriteString(expr[start:])
	}
	return b.String()
}

func compileObject(expr string) (node, error) {
	inner := strings.TrimSpace(expr[1 : len(expr)-1])
	obj := objNode{}
	if inner == "" {
		return obj, nil
	}
	for _, pair := range splitTop(inner) {
		key, value, ok := cutTop(pair, ':')
		if !ok {
			return nil, fmt.Errorf("invalid object entry %q", pair)
		}
		key = strings.Trim(strings.TrimSpace(key), `"'`)
		if key == "" {
			return nil, fmt.Errorf("empty key in object entry %q", pair)
		}
		vn, err := compileExpr(value)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.vals = append(obj.vals, vn)
	}
	return obj, nil
}

func compileArray(expr string) (node, error) {
	inner := strings.TrimSpace(expr[1 : len(expr)-1])
	arr := arrNode{}
	if inner == "" {
		return arr, nil
	}
	for _, item := range splitTop(inner) {
		n, err := compileExpr(item)
		if err != nil {
			return nil, err
		}
		arr.items = append(arr.items, n)
	}
	return arr, nil
}

// splitTop splits on commas at bracket/quote depth zero.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// cutTop splits on the first separator at depth zero.
func cutTop(s string, sep byte) (string, string, bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		default:
			if c == sep && depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

func bindVars(params, config map[string]any, ec *core.ExecContext) map[string]any {
	vars := make(map[string]any)
	for k, v := range params {
		vars["params_"+k] = widenNumber(v)
	}
	for k, v := range config {
		vars["config_"+k] = widenNumber(v)
	}
	if ec != nil {
		for k, v := range ec.Values() {
			vars["context_"+k] = widenNumber(v)
		}
	}
	return vars
}

// widenNumber converts integral inputs to float64 up front. govaluate does
// all arithmetic in float64 anyway, so this keeps echoed values and computed
// values under one numeric model (the legacy format's number type).
func widenNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}
