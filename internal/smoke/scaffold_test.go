package smoke

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderServerScriptDefaults(t *testing.T) {
	script, err := RenderServerScript(ScaffoldParams{Port: 4173, Dir: "dist"})
	if err != nil {
		t.Fatalf("RenderServerScript() error = %v", err)
	}
	for _, want := range []string{
		`os.chdir("dist")`,
		"PORT = 4173",
		`Handler.extensions_map[".js"] = "application/javascript"`,
		`Handler.extensions_map[".mjs"] = "application/javascript"`,
		"httpd.serve_forever()",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestRenderServerScriptCustomTypes(t *testing.T) {
	script, err := RenderServerScript(ScaffoldParams{
		Port:      8080,
		Dir:       "build",
		MIMETypes: []MIMEType{{Ext: ".wasm", Type: "application/wasm"}},
	})
	if err != nil {
		t.Fatalf("RenderServerScript() error = %v", err)
	}
	if !strings.Contains(script, `Handler.extensions_map[".wasm"] = "application/wasm"`) {
		t.Fatalf("custom type missing:\n%s", script)
	}
	if strings.Contains(script, `".mjs"`) {
		t.Fatalf("defaults should not be added when types are given:\n%s", script)
	}
}

func TestWriteScaffoldCleanupRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_server.py")

	written, cleanup, err := WriteScaffold(path, ScaffoldParams{Port: 4173, Dir: "dist"})
	if err != nil {
		t.Fatalf("WriteScaffold() error = %v", err)
	}
	if written != path {
		t.Fatalf("WriteScaffold() wrote %q, want %q", written, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("scaffold not written: %v", err)
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error = %v", err)
	}
	if fileExists(path) {
		t.Fatal("scaffold should be removed")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("second cleanup should be a no-op, got %v", err)
	}
}

func TestWriteScaffoldKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_server.py")
	writeFile(t, path, "# my own dev server\n")

	written, cleanup, err := WriteScaffold(path, ScaffoldParams{Port: 4173, Dir: "dist"})
	if err != nil {
		t.Fatalf("WriteScaffold() error = %v", err)
	}
	if written == path {
		t.Fatal("scaffold must not reuse an existing file")
	}
	if filepath.Dir(written) != dir || !strings.HasPrefix(filepath.Base(written), "test_server-") || filepath.Ext(written) != ".py" {
		t.Fatalf("unexpected scaffold path %q", written)
	}
	script, err := os.ReadFile(written)
	if err != nil || !strings.Contains(string(script), "PORT = 4173") {
		t.Fatalf("scaffold not written to %q: %v", written, err)
	}

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error = %v", err)
	}
	if fileExists(written) {
		t.Fatal("scaffold should be removed")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("existing file lost: %v", err)
	}
	if string(data) != "# my own dev server\n" {
		t.Fatalf("existing file changed: %q", data)
	}
}
