// Package preview serves rendered mdmail output to a browser while the source
// file is being edited.
//
// Routes:
//
//	GET  /        watched file as a full email document, with live reload
//	GET  /raw     the same document without the reload hook
//	POST /render  JSON {markdown, preset, style, document, width} to
//	              {html, text, subject, findings}
//	GET  /ws      websocket that receives {"action":"reload"} on file change
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"pkt.systems/mdmail"
	"pkt.systems/mdmail/internal/logger"
)

const placeholderSource = "# mdmail preview\n\nStart the server with a Markdown file to preview it here, or POST to `/render`.\n"

// Options configures a Server.
type Options struct {
	// Path is the Markdown file served at / and watched for changes. Empty
	// serves a placeholder.
	Path  string
	Style mdmail.StyleConfig
	// RenderOptions apply to every render. Document mode is decided by the
	// route, so a WithDocument option here has no effect.
	RenderOptions []mdmail.RenderOption
	// IgnoreFrontMatter renders front matter as content instead of applying
	// it as subject and style overrides.
	IgnoreFrontMatter bool
	RenderRate    float64
	RenderBurst   int
	Debounce      time.Duration
	Logger        *slog.Logger
}

// Server is the preview HTTP server.
type Server struct {
	opts    Options
	log     *slog.Logger
	hub     *hub
	limiter *rate.Limiter
	router  chi.Router
}

// New builds a Server. Zero rate settings disable the limit on /render.
func New(opts Options) *Server {
	if opts.Style == (mdmail.StyleConfig{}) {
		opts.Style = mdmail.DefaultStyle()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 150 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = logger.New()
	}
	log = log.With(logger.Component("preview"))
	s := &Server{
		opts: opts,
		log:  log,
		hub:  newHub(log),
	}
	if opts.RenderRate > 0 {
		burst := opts.RenderBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RenderRate), burst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Get("/", s.handleIndex)
	r.Get("/raw", s.handleRaw)
	r.With(s.rateLimit).Post("/render", s.handleRender)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr and watches Options.Path until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.opts.Path != "" {
		w, err := s.Watch(ctx)
		if err != nil {
			return err
		}
		defer w.Close()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview listening", slog.String("addr", addr), logger.Path(s.opts.Path))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("preview: listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("preview: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) source() (string, error) {
	if s.opts.Path == "" {
		return placeholderSource, nil
	}
	data, err := os.ReadFile(s.opts.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.opts.Path, err)
	}
	if err := mdmail.ValidateInput(data); err != nil {
		return "", fmt.Errorf("read %s: %w", s.opts.Path, err)
	}
	return string(data), nil
}

func (s *Server) renderDocument() (string, error) {
	src, err := s.source()
	if err != nil {
		return "", err
	}
	opts := s.renderOptions(true)
	opts = append(opts, mdmail.WithFrontMatter(!s.opts.IgnoreFrontMatter))
	return mdmail.RenderString(src, s.opts.Style, opts...), nil
}

// renderOptions returns the configured options followed by the route's
// document mode, so the route always wins.
func (s *Server) renderOptions(document bool) []mdmail.RenderOption {
	opts := make([]mdmail.RenderOption, 0, len(s.opts.RenderOptions)+2)
	opts = append(opts, s.opts.RenderOptions...)
	return append(opts, mdmail.WithDocument(document))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	out, err := s.renderDocument()
	if err != nil {
		s.log.Error("render failed", logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(injectReload(out)))
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	out, err := s.renderDocument()
	if err != nil {
		s.log.Error("render failed", logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(out))
}

// reloadScript reconnects after the server restarts and reloads on any
// "reload" message.
const reloadScript = `<script>
(function () {
  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function (ev) {
      try { if (JSON.parse(ev.data).action === "reload") { location.reload(); } } catch (e) {}
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>
`

func injectReload(doc string) string {
	if i := strings.LastIndex(doc, "</body>"); i >= 0 {
		return doc[:i] + reloadScript + doc[i:]
	}
	return doc + reloadScript
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
