package codestyle_test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
)

// projectRoot returns the repository root by walking up to the go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		_, statErr := os.Stat(filepath.Join(dir, "go.mod"))
		if statErr == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (no go.mod found)")
		}

		dir = parent
	}
}

// skipDir reports whether a directory is outside the module's own code,
// using the go tool's rule for "_" and "." prefixes.
func skipDir(name string) bool {
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		return true
	}

	switch name {
	case "vendor", "testdata":
		return true
	default:
		return false
	}
}

// walkGoFiles calls fn for every non-test Go file under root.
func walkGoFiles(t *testing.T, root string, fn func(rel string, f *ast.File)) {
	t.Helper()

	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != root && skipDir(entry.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		parsed, parseErr := parser.ParseFile(token.NewFileSet(), path, nil, parser.SkipObjectResolution)
		if parseErr != nil {
			return fmt.Errorf("parse %s: %w", path, parseErr)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		fn(rel, parsed)

		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}

// bannedFilenames maps grab-bag file names to the fix for them.
var bannedFilenames = map[string]string{
	"types.go":     "move each type next to the code that uses it",
	"utils.go":     "move each function to the file that owns its domain",
	"helpers.go":   "move each function to the file that owns its domain",
	"common.go":    "move each symbol to the file that owns its domain",
	"constants.go": "move each constant to the file where it is used",
	"errors.go":    "declare each sentinel error next to the function returning it",
}

func TestNoBannedFilenames(t *testing.T) {
	t.Parallel()

	var violations []string

	walkGoFiles(t, projectRoot(t), func(rel string, _ *ast.File) {
		if fix, banned := bannedFilenames[filepath.Base(rel)]; banned {
			violations = append(violations, fmt.Sprintf("%s: %s", rel, fix))
		}
	})

	if len(violations) > 0 {
		t.Errorf("found %d banned filename(s):\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
}

// maxInterfaceMethods bounds the size of declared interfaces.
const maxInterfaceMethods = 5

func TestNoFatInterfaces(t *testing.T) {
	t.Parallel()

	var violations []string

	walkGoFiles(t, projectRoot(t), func(rel string, f *ast.File) {
		ast.Inspect(f, func(n ast.Node) bool {
			spec, ok := n.(*ast.TypeSpec)
			if !ok {
				return true
			}

			iface, ok := spec.Type.(*ast.InterfaceType)
			if !ok {
				return true
			}

			methods := 0

			for _, field := range iface.Methods.List {
				if _, isFunc := field.Type.(*ast.FuncType); isFunc {
					methods++
				}
			}

			if methods > maxInterfaceMethods {
				violations = append(violations, fmt.Sprintf("%s: interface %s has %d methods (max %d)",
					rel, spec.Name.Name, methods, maxInterfaceMethods))
			}

			return true
		})
	})

	if len(violations) > 0 {
		t.Errorf("found %d fat interface(s):\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
}

func TestNoGrabBagPackages(t *testing.T) {
	t.Parallel()

	banned := map[string]bool{"util": true, "utils": true, "misc": true, "shared": true, "base": true, "common": true}

	var violations []string

	walkGoFiles(t, projectRoot(t), func(rel string, f *ast.File) {
		if banned[f.Name.Name] {
			violations = append(violations, fmt.Sprintf("%s: package %s", rel, f.Name.Name))
		}
	})

	if len(violations) > 0 {
		t.Errorf("found %d file(s) in grab-bag packages:\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
}

// stutters reports whether an exported name repeats its package name at a
// CamelCase word boundary: workbench.WorkbenchRunner stutters,
// persist.Persister and config.Config do not.
func stutters(pkgName, exportedName string) (string, bool) {
	titled := strings.ToUpper(pkgName[:1]) + pkgName[1:]

	rest, found := strings.CutPrefix(exportedName, titled)
	if !found || rest == "" {
		return "", false
	}

	first := rune(rest[0])
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
		return "", false
	}

	return rest, true
}

func TestStutters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg, name string
		want      bool
	}{
		{pkg: "workbench", name: "WorkbenchRunner", want: true},
		{pkg: "stree", name: "StreeNode", want: true},
		{pkg: "persist", name: "Persister"},
		{pkg: "config", name: "Config"},
		{pkg: "scoring", name: "Model"},
	}

	for _, tt := range tests {
		_, got := stutters(tt.pkg, tt.name)
		if got != tt.want {
			t.Errorf("stutters(%q, %q) = %v, want %v", tt.pkg, tt.name, got, tt.want)
		}
	}
}

func TestNoStutteringExports(t *testing.T) {
	t.Parallel()

	var violations []string

	walkGoFiles(t, projectRoot(t), func(rel string, f *ast.File) {
		pkgName := strings.ToLower(f.Name.Name)

		for _, decl := range f.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, isType := spec.(*ast.TypeSpec)
				if !isType || !ast.IsExported(typeSpec.Name.Name) {
					continue
				}

				if trimmed, stutter := stutters(pkgName, typeSpec.Name.Name); stutter {
					violations = append(violations, fmt.Sprintf("%s: rename %s.%s to %s.%s",
						rel, f.Name.Name, typeSpec.Name.Name, f.Name.Name, trimmed))
				}
			}
		}
	})

	if len(violations) > 0 {
		t.Errorf("found %d stuttering export(s):\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
}
