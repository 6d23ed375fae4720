package server

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// routeDecl is one mux registration in routes.go whose pattern is a string
// literal and whose handler is a Server method.
type routeDecl struct {
	method  string
	path    string
	handler string
	guard   string
}

func (r routeDecl) String() string { return r.method + " " + r.path }

// serverSource is the parsed non-test code of this package.
type serverSource struct {
	routes   []routeDecl
	handlers map[string]*ast.FuncDecl
}

// Admin routes that must stay reachable without a session.
var unguardedAdminRoutes = []string{
	"GET /admin",
	"GET /admin/login",
	"POST /admin/login",
	"POST /admin/logout",
	"GET /admin/events",
}

func TestAdminRoutesRequireSession(t *testing.T) {
	src := loadServerSource(t)

	guarded := 0
	for _, route := range src.routes {
		if !strings.HasPrefix(route.path, "/admin") && !strings.HasPrefix(route.path, "/v1/admin/") {
			continue
		}
		if slices.Contains(unguardedAdminRoutes, route.String()) {
			if route.guard != "" {
				t.Errorf("%s must stay public, wrapped in %s", route, route.guard)
			}
			continue
		}
		want := "requireAdminPage"
		if strings.HasPrefix(route.path, "/v1/") {
			want = "requireAdminAPI"
		}
		if route.guard != want {
			t.Errorf("%s (%s) needs %s, got %q", route, route.handler, want, route.guard)
		}
		guarded++
	}
	if guarded == 0 {
		t.Fatal("no guarded admin routes discovered")
	}
}

// TestMutationHandlersUseWorkflowBoundary keeps writes behind the
// applications and listing packages instead of raw backend calls.
func TestMutationHandlersUseWorkflowBoundary(t *testing.T) {
	src := loadServerSource(t)

	checked := 0
	for _, route := range src.routes {
		switch route.method {
		case "POST", "PATCH", "PUT", "DELETE":
		default:
			continue
		}
		fn := src.handlers[route.handler]
		if fn == nil {
			t.Fatalf("%s: handler %s not found", route, route.handler)
		}
		checked++
		for _, call := range backendWrites(fn) {
			t.Errorf("%s: %s calls s.%s directly", route, route.handler, call)
		}
	}
	if checked == 0 {
		t.Fatal("no mutation routes discovered")
	}
}

func TestEveryHandlerIsRouted(t *testing.T) {
	src := loadServerSource(t)

	routed := make(map[string]bool, len(src.routes))
	for _, route := range src.routes {
		routed[route.handler] = true
	}
	for name := range src.handlers {
		if !routed[name] {
			t.Errorf("handler %s is never registered in routes.go", name)
		}
	}
}

func loadServerSource(t *testing.T) serverSource {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	paths, err := filepath.Glob(filepath.Join(filepath.Dir(self), "*.go"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}

	src := serverSource{handlers: make(map[string]*ast.FuncDecl)}
	fset := token.NewFileSet()
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		for _, decl := range file.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && isServerMethod(fn) && strings.HasPrefix(fn.Name.Name, "handle") {
				src.handlers[fn.Name.Name] = fn
			}
		}
		if filepath.Base(path) == "routes.go" {
			src.routes = routeDecls(t, file)
		}
	}
	if len(src.routes) == 0 {
		t.Fatal("no routes parsed from routes.go")
	}
	return src
}

func routeDecls(t *testing.T, file *ast.File) []routeDecl {
	var out []routeDecl
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) != 2 {
			return true
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); !ok || (sel.Sel.Name != "Handle" && sel.Sel.Name != "HandleFunc") {
			return true
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		pattern, err := strconv.Unquote(lit.Value)
		if err != nil {
			t.Fatalf("unquote %s: %v", lit.Value, err)
		}
		method, path, ok := strings.Cut(pattern, " ")
		if !ok {
			return true
		}

		route := routeDecl{method: method, path: path}
		target := call.Args[1]
		if wrap, ok := target.(*ast.CallExpr); ok && len(wrap.Args) == 1 {
			route.guard = receiverMethod(wrap.Fun)
			target = wrap.Args[0]
		}
		if route.handler = receiverMethod(target); route.handler != "" {
			out = append(out, route)
		}
		return true
	})
	return out
}

// backendWrites lists s.jobs / s.applications / s.storage mutations in fn.
func backendWrites(fn *ast.FuncDecl) []string {
	var calls []string
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		method, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		field := receiverMethod(method.X)
		switch field {
		case "jobs", "applications", "storage":
		default:
			return true
		}
		for _, verb := range []string{"Create", "Update", "Delete", "Upload", "Remove"} {
			if strings.HasPrefix(method.Sel.Name, verb) {
				calls = append(calls, field+"."+method.Sel.Name)
				break
			}
		}
		return true
	})
	slices.Sort(calls)
	return slices.Compact(calls)
}

// receiverMethod returns name for an s.name expression.
func receiverMethod(expr ast.Expr) string {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	if recv, ok := sel.X.(*ast.Ident); !ok || recv.Name != "s" {
		return ""
	}
	return sel.Sel.Name
}

func isServerMethod(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return false
	}
	star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	ident, ok := star.X.(*ast.Ident)
	return ok && ident.Name == "Server"
}
