// Package preview serves a built static bundle for manual checks.
package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ScriptTypes are the content types forced for script extensions. Some
// platforms map .js and .mjs to text/plain, which browsers refuse for modules.
var ScriptTypes = map[string]string{
	".js":  "application/javascript",
	".mjs": "application/javascript",
}

// Handler serves files from dir with ScriptTypes applied.
func Handler(dir string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := strings.ToLower(path.Ext(r.URL.Path))
		if ct, ok := ScriptTypes[ext]; ok {
			w.Header().Set("Content-Type", ct)
		}
		logger.Debug("preview request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		files.ServeHTTP(w, r)
	})
}

// Server serves one output directory.
type Server struct {
	dir    string
	addr   string
	logger *zap.Logger
	ln     net.Listener
}

// NewServer validates dir and binds addr (e.g. ":4173").
func NewServer(dir, addr string, logger *zap.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("output directory %s not found; run the build first", dir)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{dir: dir, addr: addr, logger: logger, ln: ln}, nil
}

// URL returns the local address the server is reachable at.
func (s *Server) URL() string {
	port := s.ln.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://localhost:%d/", port)
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Handler:           Handler(s.dir, s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(s.ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop preview server: %w", err)
		}
		return nil
	}
}
