package smoke

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// ScaffoldParams configures the throwaway static server script.
type ScaffoldParams struct {
	Port int
	Dir  string
	// MIMETypes maps file extensions to explicit content types, in order.
	MIMETypes []MIMEType
}

// MIMEType is one extension to content-type mapping.
type MIMEType struct {
	Ext  string
	Type string
}

// DefaultMIMETypes serves JavaScript modules with a script content type.
var DefaultMIMETypes = []MIMEType{
	{Ext: ".js", Type: "application/javascript"},
	{Ext: ".mjs", Type: "application/javascript"},
}

var serverScript = template.Must(template.New("server").Parse(`
import http.server
import socketserver
import os

os.chdir({{printf "%q" .Dir}})
PORT = {{.Port}}

Handler = http.server.SimpleHTTPRequestHandler
{{- range .MIMETypes}}
Handler.extensions_map[{{printf "%q" .Ext}}] = {{printf "%q" .Type}}
{{- end}}

with socketserver.TCPServer(("", PORT), Handler) as httpd:
    print(f"Server running at http://localhost:{PORT}/")
    print("Press Ctrl+C to stop")
    try:
        httpd.serve_forever()
    except KeyboardInterrupt:
        print("\nServer stopped")
`))

// RenderServerScript returns the server script text for p.
func RenderServerScript(p ScaffoldParams) (string, error) {
	if p.MIMETypes == nil {
		p.MIMETypes = DefaultMIMETypes
	}
	var b bytes.Buffer
	if err := serverScript.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render server script: %w", err)
	}
	return b.String(), nil
}

// WriteScaffold writes the server script to path and returns the path it
// used and a function that removes it. An existing file at path is never
// touched; the script then goes to a unique sibling such as
// test_server-123.py. The cleanup ignores a file that is already gone.
func WriteScaffold(path string, p ScaffoldParams) (string, func() error, error) {
	script, err := RenderServerScript(p)
	if err != nil {
		return "", nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		ext := filepath.Ext(path)
		pattern := strings.TrimSuffix(filepath.Base(path), ext) + "-*" + ext
		f, err = os.CreateTemp(filepath.Dir(path), pattern)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to write server scaffold: %w", err)
	}
	written := f.Name()

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(written)
		return "", nil, fmt.Errorf("failed to write server scaffold: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(written)
		return "", nil, fmt.Errorf("failed to write server scaffold: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(written)
		return "", nil, fmt.Errorf("failed to write server scaffold: %w", err)
	}

	return written, func() error {
		if err := os.Remove(written); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove server scaffold: %w", err)
		}
		return nil
	}, nil
}
