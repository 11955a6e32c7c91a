package analyzers

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// ContextFirstAnalyzer reports functions that take a context.Context
// anywhere but as their first parameter.
var ContextFirstAnalyzer = &analysis.Analyzer{
	Name:     "ctxfirst",
	Doc:      "require context.Context to be the first parameter",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      runContextFirst,
}

func runContextFirst(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.FuncType)(nil)}, func(n ast.Node) {
		params := n.(*ast.FuncType).Params
		if params == nil {
			return
		}

		pos := 0
		for _, field := range params.List {
			names := len(field.Names)
			if names == 0 {
				names = 1
			}
			if pos > 0 && isContext(pass.TypesInfo.TypeOf(field.Type)) {
				pass.Reportf(field.Pos(), "context.Context should be the first parameter")
			}
			pos += names
		}
	})
	return nil, nil
}

func isContext(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}
