package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// Dependencies holds the symbols one parsed file's spans reference,
// split by kind so the indexer can stamp them onto the right chunk's
// Imports/Calls fields.
type Dependencies struct {
	Imports []string
	Calls   map[string][]string // symbol name -> per-span call targets, keyed by enclosing function/method name
}

// ExtractGoDependencies walks content's AST the same way the teacher's
// GoParser.extractImports does (file.Imports, one path per entry), and
// additionally records, per top-level function/method, every called
// identifier's name (selector or bare call), so each chunk can carry
// the symbols its own span references.
func ExtractGoDependencies(content string) (Dependencies, bool) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", content, 0)
	if err != nil {
		return Dependencies{}, false
	}

	deps := Dependencies{Calls: make(map[string][]string)}
	for _, imp := range file.Imports {
		path, unquoteErr := strconv.Unquote(imp.Path.Value)
		if unquoteErr != nil {
			path = imp.Path.Value
		}
		deps.Imports = append(deps.Imports, path)
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		deps.Calls[fn.Name.Name] = callTargets(fn.Body)
	}

	return deps, true
}

func callTargets(body *ast.BlockStmt) []string {
	if body == nil {
		return nil
	}
	seen := make(map[string]struct{})
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if name := callName(call.Fun); name != "" {
			seen[name] = struct{}{}
		}
		return true
	})

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out
}

func callName(fn ast.Expr) string {
	switch f := fn.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return strings.TrimPrefix(f.Sel.Name, "_")
	default:
		return ""
	}
}
