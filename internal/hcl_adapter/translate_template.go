package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/template"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateTemplate turns an `args` expression into a command template.
// The literal parts of an HCL string template become template segments and
// each interpolation becomes one argument, so an interpolation that yields
// null or false elides the flag written right before it.
func translateTemplate(ctx context.Context, expr hcl.Expression, evalCtx *hcl.EvalContext) (template.Template, error) {
	logger := ctxlog.FromContext(ctx)

	if !isExprDefined(expr) {
		return template.Template{}, nil
	}

	var parts []hclsyntax.Expression
	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr:
		parts = e.Parts
	case *hclsyntax.TemplateWrapExpr:
		parts = []hclsyntax.Expression{e.Wrapped}
	default:
		// Not a string template: the whole value is a single argument.
		arg, err := translateValue(expr, evalCtx)
		if err != nil {
			return template.Template{}, err
		}
		return template.New([]string{"", ""}, arg), nil
	}

	segments := []string{""}
	var args []template.Arg
	for _, part := range parts {
		if lit, ok := part.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
			segments[len(segments)-1] += lit.Val.AsString()
			continue
		}
		arg, err := translateValue(part, evalCtx)
		if err != nil {
			return template.Template{}, err
		}
		args = append(args, arg)
		segments = append(segments, "")
	}

	logger.Debug("Translated command template.", "segments", len(segments), "args", len(args))
	if len(args) == 0 {
		return template.Literal(segments[0]), nil
	}
	return template.New(segments, args...), nil
}

// translateValue evaluates expr and converts the result into a template
// argument: null becomes Absent, booleans Bool, collections a sequence and
// every other primitive its string form.
func translateValue(expr hcl.Expression, evalCtx *hcl.EvalContext) (template.Arg, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate %s: %w", expr.Range(), diags)
	}
	if val.IsNull() {
		return template.Absent, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value at %s is not known", expr.Range())
	}

	ty := val.Type()
	switch {
	case ty == cty.Bool:
		return template.Bool(val.True()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		var items []string
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			s, err := primitiveString(elem)
			if err != nil {
				return nil, fmt.Errorf("at %s: %w", expr.Range(), err)
			}
			items = append(items, s)
		}
		return template.Seq(items...), nil
	}

	s, err := primitiveString(val)
	if err != nil {
		return nil, fmt.Errorf("at %s: %w", expr.Range(), err)
	}
	return template.Value(s), nil
}

func primitiveString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("null collection element")
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot use %s in a command: %w", v.Type().FriendlyName(), err)
	}
	return s.AsString(), nil
}

// isExprDefined checks if an HCL expression was actually present in the source
// code. The decoder populates omitted optional attributes with zero-width
// placeholder expressions, so a nil check alone is insufficient.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
