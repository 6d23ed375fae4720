package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

type commandSource struct {
	name string
	file *ast.File
}

// parseCommandSources parses every non-test file in this package.
func parseCommandSources(t *testing.T) (*token.FileSet, []commandSource) {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	paths, err := filepath.Glob(filepath.Join(filepath.Dir(self), "*.go"))
	if err != nil {
		t.Fatalf("glob sources: %v", err)
	}

	fset := token.NewFileSet()
	var out []commandSource
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		out = append(out, commandSource{name: filepath.Base(path), file: file})
	}
	if len(out) == 0 {
		t.Fatal("no command sources found")
	}
	return fset, out
}

// TestCommandConstructorsStaySmall caps newXxxCmd bodies. The limit can be
// raised with JOBBOARD_MAX_CMD_CONSTRUCTOR_LINES.
func TestCommandConstructorsStaySmall(t *testing.T) {
	limit := 80
	if n, err := strconv.Atoi(os.Getenv("JOBBOARD_MAX_CMD_CONSTRUCTOR_LINES")); err == nil && n > 0 {
		limit = n
	}

	fset, sources := parseCommandSources(t)
	for _, src := range sources {
		for _, decl := range src.file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			name := fn.Name.Name
			if !strings.HasPrefix(name, "new") || !strings.HasSuffix(name, "Cmd") {
				continue
			}
			lines := fset.Position(fn.Body.Rbrace).Line - fset.Position(fn.Body.Lbrace).Line + 1
			if lines > limit {
				t.Errorf("%s: %s is %d lines (max %d); move logic into helpers", src.name, name, lines, limit)
			}
		}
	}
}

// TestCommandsWriteThroughOutputHelpers keeps stdout swappable in tests.
func TestCommandsWriteThroughOutputHelpers(t *testing.T) {
	fset, sources := parseCommandSources(t)
	for _, src := range sources {
		if src.name == "output.go" {
			continue
		}
		ast.Inspect(src.file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if (pkg.Name == "fmt" && strings.HasPrefix(sel.Sel.Name, "Print")) ||
				(pkg.Name == "os" && sel.Sel.Name == "Stdout") {
				t.Errorf("%s: %s.%s bypasses the output helpers", fset.Position(sel.Pos()), pkg.Name, sel.Sel.Name)
			}
			return true
		})
	}
}
