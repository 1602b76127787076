package hcl_adapter

import (
	"os"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/wavebuild/internal/config"
	"github.com/specialistvlad/wavebuild/internal/template"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// newEvalContext exposes the invocation to configuration expressions:
//
//	packages      the requested allow-list
//	getenv(name)  the variable's value, null when unset or empty
//	arg(flag)     the argument following flag, true when flag is last, null
//	              when flag was not passed
//	argv()        every argument, single-quoted for a POSIX shell
func newEvalContext(in config.Inputs) *hcl.EvalContext {
	getenv := in.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	packages := cty.ListValEmpty(cty.String)
	if len(in.Packages) > 0 {
		vals := make([]cty.Value, len(in.Packages))
		for i, p := range in.Packages {
			vals[i] = cty.StringVal(p)
		}
		packages = cty.ListVal(vals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"packages": packages,
		},
		Functions: map[string]function.Function{
			"getenv": getenvFunc(getenv),
			"arg":    argFunc(in.Args),
			"argv":   argvFunc(in.Args),
		},
	}
}

func getenvFunc(getenv func(string) string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "name", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			v := getenv(args[0].AsString())
			if v == "" {
				return cty.NullVal(cty.String), nil
			}
			return cty.StringVal(v), nil
		},
	})
}

func argFunc(argv []string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "flag", Type: cty.String}},
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			i := slices.Index(argv, args[0].AsString())
			switch {
			case i < 0:
				return cty.NullVal(cty.DynamicPseudoType), nil
			case i+1 < len(argv) && argv[i+1] != "":
				return cty.StringVal(argv[i+1]), nil
			default:
				return cty.True, nil
			}
		},
	})
}

func argvFunc(argv []string) function.Function {
	return function.New(&function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func([]cty.Value, cty.Type) (cty.Value, error) {
			return cty.StringVal(template.ShellQuote(argv...)), nil
		},
	})
}
