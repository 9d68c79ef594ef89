// Package preview mirrors the rendered rings to browsers over websockets and
// accepts a few live controls. It is also a led.Driver, so the frame loop
// feeds it like any other output.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-aurora/internal/diagnostics"
	"github.com/coreman2200/funtimes-aurora/internal/layout"
	"github.com/coreman2200/funtimes-aurora/internal/pattern"
	"github.com/coreman2200/funtimes-aurora/internal/render"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

// Control is one request from /control. Fields left out are not changed.
type Control struct {
	Brightness *int   `json:"brightness,omitempty"`
	RunTest    string `json:"runTest,omitempty"`
}

// Stats is what the frame loop reports for /health.
type Stats struct {
	FPS      float64
	RenderMS float64
	Sensors  [sensor.Channels]float64
}

type Server struct {
	Primary   layout.Ring
	Secondary layout.Ring
	// Throttle limits frames sent to browsers; the loop runs far faster
	// than anyone can watch.
	Throttle time.Duration
	// Controls carries validated requests to the frame loop, which applies
	// them between frames.
	Controls chan Control

	mu          sync.RWMutex
	wmu         sync.Mutex // one writer per connection at a time
	frames      uint64
	brightness  uint8
	stats       Stats
	start       time.Time
	lastEmit    time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	upgrader    websocket.Upgrader
}

func NewServer(primary, secondary layout.Ring, brightness uint8) *Server {
	return &Server{
		Primary:     primary,
		Secondary:   secondary,
		Throttle:    50 * time.Millisecond,
		Controls:    make(chan Control, 16),
		brightness:  brightness,
		start:       time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return withCORS(mux)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.Info().Str("addr", addr).Msg("preview listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type frameMsg struct {
	T         int64  `json:"t"`
	FrameID   uint64 `json:"frame_id"`
	Primary   []byte `json:"primary"`
	Secondary []byte `json:"secondary"`
}

// Show counts the frame and, at most once per Throttle, broadcasts it.
func (s *Server) Show(primary, secondary []render.RGB) error {
	s.mu.Lock()
	s.frames++
	now := time.Now()
	if s.Throttle > 0 && now.Sub(s.lastEmit) < s.Throttle {
		s.mu.Unlock()
		return nil
	}
	s.lastEmit = now
	msg := frameMsg{
		T:         now.UnixNano(),
		FrameID:   s.frames,
		Primary:   scaled(primary, s.brightness),
		Secondary: scaled(secondary, s.brightness),
	}
	s.mu.Unlock()

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.broadcast(s.clients, b)
	return nil
}

func scaled(frame []render.RGB, b uint8) []byte {
	out := render.Bytes(frame, nil)
	if b != 255 {
		for i := range out {
			out[i] = render.Scale8(out[i], b)
		}
	}
	return out
}

func (s *Server) SetBrightness(b uint8) {
	s.mu.Lock()
	s.brightness = b
	s.mu.Unlock()
}

// SetStats records loop metrics for /health.
func (s *Server) SetStats(st Stats) {
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.Close()
	}
	for c := range s.diagClients {
		_ = c.Close()
	}
	return nil
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.register(s.clients, conn)
	s.sendTopology(conn)
	go s.drain(s.clients, conn)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.register(s.diagClients, conn)
	s.write(conn, diag.Diagnostic{Severity: diag.Info, Code: "DIAG.CONNECTED", Summary: "Diagnostics connected"})
	go s.drain(s.diagClients, conn)
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var c Control
		if err := json.Unmarshal(data, &c); err != nil {
			s.PushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "CTRL.PARSE", Summary: "Bad control message",
				Evidence: map[string]any{"error": err.Error()},
			})
			continue
		}
		s.applyControl(c)
		s.sendTopology(conn)
	}
}

func (s *Server) applyControl(c Control) {
	if c.Brightness != nil && (*c.Brightness < 0 || *c.Brightness > 255) {
		s.PushDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: "CTRL.BRIGHTNESS", Summary: "Brightness out of range",
			Evidence: map[string]any{"brightness": *c.Brightness},
		})
		c.Brightness = nil
	}
	if c.RunTest != "" {
		if _, err := pattern.New(c.RunTest, 1); err != nil {
			s.PushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": c.RunTest, "have": pattern.Names()},
			})
			c.RunTest = ""
		} else {
			s.PushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: c.RunTest})
		}
	}
	if c.Brightness == nil && c.RunTest == "" {
		return
	}
	select {
	case s.Controls <- c:
	default:
		s.PushDiag(diag.Diagnostic{Severity: diag.Warn, Code: "CTRL.BUSY", Summary: "Control queue full, request dropped"})
	}
}

type health struct {
	FrameID    uint64                   `json:"frame_id"`
	UptimeS    float64                  `json:"uptime_s"`
	Primary    int                      `json:"primary"`
	Secondary  int                      `json:"secondary"`
	FPS        float64                  `json:"fps"`
	RenderMS   float64                  `json:"render_ms"`
	Brightness uint8                    `json:"brightness"`
	Sensors    [sensor.Channels]float64 `json:"sensors"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := health{
		FrameID:    s.frames,
		UptimeS:    time.Since(s.start).Seconds(),
		Primary:    s.Primary.Count,
		Secondary:  s.Secondary.Count,
		FPS:        s.stats.FPS,
		RenderMS:   s.stats.RenderMS,
		Brightness: s.brightness,
		Sensors:    s.stats.Sensors,
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// PushDiag sends d to every /diag client.
func (s *Server) PushDiag(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.broadcast(s.diagClients, b)
}

func (s *Server) register(set map[*websocket.Conn]bool, c *websocket.Conn) {
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()
}

// drain reads until the client goes away, then forgets it.
func (s *Server) drain(set map[*websocket.Conn]bool, c *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(set, c)
		s.mu.Unlock()
		c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(set map[*websocket.Conn]bool, b []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("preview write")
		}
	}
}

func (s *Server) sendTopology(c *websocket.Conn) {
	s.mu.RLock()
	top := map[string]any{
		"primary":    map[string]any{"name": s.Primary.Name, "count": s.Primary.Count},
		"secondary":  map[string]any{"name": s.Secondary.Name, "count": s.Secondary.Count},
		"brightness": s.brightness,
		"patterns":   pattern.Names(),
	}
	s.mu.RUnlock()
	s.write(c, top)
}

func (s *Server) write(c *websocket.Conn, v any) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = c.WriteJSON(v)
}
