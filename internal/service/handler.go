// Package service exposes lowering over HTTP. Requests are independent: each
// one decodes its own document and lowers it with a fresh context.
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orizon-lang/stackir/internal/astbridge"
	"github.com/orizon-lang/stackir/internal/cli"
	"github.com/orizon-lang/stackir/internal/diagnostic"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/lower"
	"github.com/orizon-lang/stackir/internal/resolver"
)

// DefaultMaxBodyBytes caps the size of a POSTed document.
const DefaultMaxBodyBytes = 1 << 20

// Options configures the handler.
type Options struct {
	MaxBodyBytes int64
	Logger       *cli.Logger
}

type handler struct {
	opts Options
	log  *cli.Logger
}

// NewHandler returns the service's routes:
//
//	POST /lower    AST document -> IR (JSON, or text with ?emit=text)
//	GET  /healthz  liveness
//	GET  /version  version info
func NewHandler(opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &handler{opts: opts, log: opts.Logger}
	if h.log == nil {
		h.log = cli.NewLoggerTo(io.Discard, false, false)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/lower", h.lower)
	mux.HandleFunc("/healthz", h.healthz)
	mux.HandleFunc("/version", h.version)
	return mux
}

// errorResponse wraps a diagnostic list for error replies.
type errorResponse struct {
	Diagnostics []*diagnostic.Diagnostic `json:"diagnostics"`
}

func (h *handler) lower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	start := time.Now()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		h.fail(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	prog, err := astbridge.Decode(data, "request")
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	var warnings []resolver.Warning
	out, err := lower.LowerProgramWithOptions(prog, lower.Options{
		OnWarning: func(wr resolver.Warning) { warnings = append(warnings, wr) },
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if se, ok := errors.As(err); ok && se.Category != errors.CategorySemantic {
			status = http.StatusBadRequest
		}
		h.fail(w, status, err)
		return
	}
	w.Header().Set("X-Stackir-Warnings", fmt.Sprint(len(warnings)))

	h.log.Info("lowered %s: %d insns, %d vars in %s",
		out.Function.Name, len(out.Function.Insns), out.Function.VarCount, time.Since(start))

	if r.URL.Query().Get("emit") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, out.String())
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.fail(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (h *handler) version(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.fail(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	h.writeJSON(w, http.StatusOK, cli.GetVersionInfo(lir.FormatVersion, astbridge.FormatVersion))
}

func (h *handler) fail(w http.ResponseWriter, status int, err error) {
	h.log.Debug("request failed with %d: %v", status, err)
	h.writeJSON(w, status, errorResponse{Diagnostics: []*diagnostic.Diagnostic{diagnostic.FromError(err)}})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("failed to encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
