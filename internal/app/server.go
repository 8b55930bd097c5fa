package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// Handler returns the read-only inspection API:
//
//	GET /health        liveness
//	GET /rules         merged rule table
//	GET /rules/{name}  rule that applies to name
//	GET /has/{name}    whether name resolves to a registered type
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", a.healthHandler)
	r.Get("/rules", a.rulesHandler)
	r.Get("/rules/{name}", a.ruleHandler)
	r.Get("/has/{name}", a.hasHandler)
	return r
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) rulesHandler(w http.ResponseWriter, r *http.Request) {
	body, err := rules.EncodeTable(a.container.Rules())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (a *App) ruleHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.writeJSON(w, http.StatusOK, rules.NamedRule{Name: rules.Normalize(name), Rule: a.container.Rule(name)})
}

func (a *App) hasHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a.writeJSON(w, http.StatusOK, map[string]any{"name": name, "has": a.container.Has(name)})
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (a *App) writeError(w http.ResponseWriter, status int, err error) {
	a.logger.Error("Inspection request failed.", "error", err)
	http.Error(w, err.Error(), status)
}

// Serve runs the inspection server on the configured port until ctx is
// cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Inspection server starting.", "address", ln.Addr().String())
		// ErrServerClosed is the normal result of Shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("inspection server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return a.closeServer()
	}
}

func (a *App) closeServer() error {
	if a.httpServer == nil {
		a.logger.Debug("Inspection server was not running.")
		return nil
	}

	// Shutdown must not inherit a cancelled context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("Shutting down inspection server...")
	srv := a.httpServer
	a.httpServer = nil
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Inspection server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Inspection server shut down gracefully.")
	return nil
}
