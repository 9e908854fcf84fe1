package tokenlog

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports session tokens and passwords handed to the logger. It
// looks at calls on a value named Log (such as logger.Log.Infoln) and flags
// every argument that mentions an identifier named like a secret.
var Analyzer = &analysis.Analyzer{
	Name: "tokenlog",
	Doc:  "prohibits passing tokens and passwords to the logger",
	Run:  run,
}

var logMethods = map[string]bool{
	"Debug": true, "Debugf": true, "Debugln": true, "Debugw": true,
	"Info": true, "Infof": true, "Infoln": true, "Infow": true,
	"Warn": true, "Warnf": true, "Warnln": true, "Warnw": true,
	"Error": true, "Errorf": true, "Errorln": true, "Errorw": true,
	"Fatal": true, "Fatalf": true, "Fatalln": true, "Fatalw": true,
}

var secretNames = []string{"token", "password", "secret"}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		// Exclude go-build cache files
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || !logMethods[sel.Sel.Name] || !isLogValue(sel.X) {
				return true
			}

			for _, arg := range call.Args {
				if name, found := secretIdent(arg); found {
					pass.Reportf(arg.Pos(), "secret %q passed to Log.%s", name, sel.Sel.Name)
				}
			}

			return true
		})
	}
	return nil, nil
}

func isLogValue(expr ast.Expr) bool {
	switch x := expr.(type) {
	case *ast.Ident:
		return x.Name == "Log"
	case *ast.SelectorExpr:
		return x.Sel.Name == "Log"
	}
	return false
}

func secretIdent(arg ast.Expr) (string, bool) {
	var name string
	ast.Inspect(arg, func(n ast.Node) bool {
		if name != "" {
			return false
		}
		ident, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		lower := strings.ToLower(ident.Name)
		for _, secret := range secretNames {
			if strings.Contains(lower, secret) {
				name = ident.Name
				return false
			}
		}
		return true
	})

	return name, name != ""
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
