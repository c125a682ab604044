// Package bridge exposes the daemon to the CRM web frontend: a localhost
// WebSocket carrying the desktop:* channel contract plus a few plain HTTP
// endpoints for health, status, and single-instance surfacing.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

// Status is the payload of GET /status.
type Status struct {
	Version           string `json:"version"`
	Unread            int    `json:"unread"`
	RendererConnected bool   `json:"rendererConnected"`
	StagedUpdate      string `json:"stagedUpdate,omitempty"`
}

// Handlers receive normalized renderer events. All payload coercion happens
// in the bridge before a handler runs.
type Handlers struct {
	OnAuthToken      func(token string, ok bool)
	OnUnreadCount    func(count int)
	OnPushReceipt    func(reminderID int)
	OnPushReminder   func(reminder models.Reminder)
	OnFocus          func(focused bool)
	GetLaunchAtLogin func() bool
	SetLaunchAtLogin func(enable bool) bool
	OnOpenRequest    func()
	OnDisconnect     func()
	Status           func() Status
}

// Server is the renderer-facing bridge.
type Server struct {
	handlers      Handlers
	allowedOrigin string
	debug         bool

	httpServer *http.Server
	listener   net.Listener

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// New creates a bridge restricted to renderer connections from the given
// origin (plus non-browser clients, which send no Origin header).
func New(allowedOrigin string, handlers Handlers, debug bool) *Server {
	return &Server{
		handlers:      handlers,
		allowedOrigin: allowedOrigin,
		debug:         debug,
		conns:         make(map[string]*websocket.Conn),
	}
}

// Start listens on 127.0.0.1:port and serves in the background. Returns the
// actual port (useful with port 0 in tests).
func (s *Server) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return 0, fmt.Errorf("bridge listen: %w", err)
	}
	s.listener = listener
	actualPort := listener.Addr().(*net.TCPAddr).Port

	// One mux built at startup keeps handler registration idempotent
	// across restarts of the server.
	mux := http.NewServeMux()
	mux.Handle("/bridge", websocket.Server{
		Handshake: s.checkOrigin,
		Handler:   websocket.Handler(s.handleConn),
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/open", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.handlers.OnOpenRequest != nil {
			s.handlers.OnOpenRequest()
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		var status Status
		if s.handlers.Status != nil {
			status = s.handlers.Status()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	})

	s.httpServer = &http.Server{Handler: mux}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("[bridge] server error: %v", err)
		}
	}()

	log.Printf("[bridge] listening on 127.0.0.1:%d", actualPort)
	return actualPort, nil
}

// Stop shuts the bridge down, closing renderer connections.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = make(map[string]*websocket.Conn)
	s.mu.Unlock()

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}
}

// ConnectedCount returns the number of attached renderers.
func (s *Server) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Broadcast sends a frame to every attached renderer.
func (s *Server) Broadcast(channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[bridge] marshal %s payload: %v", channel, err)
		return
	}
	frame := Frame{Channel: channel, Payload: data}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := websocket.JSON.Send(c, frame); err != nil {
			log.Printf("[bridge] send %s failed: %v", channel, err)
		}
	}
}

// checkOrigin enforces the origin allow-list. Browser renderers must come
// from the configured CRM origin; clients without an Origin header (the
// CLI) are allowed.
func (s *Server) checkOrigin(cfg *websocket.Config, req *http.Request) error {
	origin := req.Header.Get("Origin")
	if origin == "" || origin == s.allowedOrigin {
		return nil
	}
	log.Printf("[bridge] rejected connection from origin %q", origin)
	return fmt.Errorf("origin %q not allowed", origin)
}

func (s *Server) handleConn(conn *websocket.Conn) {
	id := uuid.NewString()
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
	log.Printf("[bridge] renderer %s connected", id)

	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		remaining := len(s.conns)
		s.mu.Unlock()
		_ = conn.Close()
		log.Printf("[bridge] renderer %s disconnected", id)
		if remaining == 0 && s.handlers.OnDisconnect != nil {
			s.handlers.OnDisconnect()
		}
	}()

	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			return
		}
		s.handleFrame(conn, frame)
	}
}

func (s *Server) handleFrame(conn *websocket.Conn, frame Frame) {
	if s.debug {
		log.Printf("[bridge] frame %s", frame.Channel)
	}

	switch frame.Channel {
	case ChannelAuthToken:
		token, ok := NormalizeToken(frame.Payload)
		if s.handlers.OnAuthToken != nil {
			s.handlers.OnAuthToken(token, ok)
		}

	case ChannelUnreadCount:
		if s.handlers.OnUnreadCount != nil {
			s.handlers.OnUnreadCount(CoerceCount(frame.Payload))
		}

	case ChannelPushReceipt:
		id, ok := ParseReminderID(frame.Payload)
		if !ok {
			log.Printf("[bridge] push-receipt with invalid reminder id ignored")
			return
		}
		if s.handlers.OnPushReceipt != nil {
			s.handlers.OnPushReceipt(id)
		}

	case ChannelPushReminder:
		var payload PushReminderPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.ReminderID <= 0 {
			log.Printf("[bridge] push-reminder with invalid payload ignored")
			return
		}
		if s.handlers.OnPushReminder != nil {
			s.handlers.OnPushReminder(models.Reminder{
				ID:      payload.ReminderID,
				Title:   payload.Title,
				Content: payload.Body,
			})
		}

	case ChannelFocus:
		if s.handlers.OnFocus != nil {
			s.handlers.OnFocus(ParseBool(frame.Payload))
		}

	case ChannelLaunchAtLoginGet:
		enabled := false
		if s.handlers.GetLaunchAtLogin != nil {
			enabled = s.handlers.GetLaunchAtLogin()
		}
		s.reply(conn, frame, enabled)

	case ChannelLaunchAtLoginSet:
		result := false
		if s.handlers.SetLaunchAtLogin != nil {
			result = s.handlers.SetLaunchAtLogin(ParseBool(frame.Payload))
		}
		s.reply(conn, frame, result)

	default:
		log.Printf("[bridge] unknown channel %q ignored", frame.Channel)
	}
}

func (s *Server) reply(conn *websocket.Conn, req Frame, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[bridge] marshal reply for %s: %v", req.Channel, err)
		return
	}
	if err := websocket.JSON.Send(conn, Frame{Channel: req.Channel, ID: req.ID, Payload: data}); err != nil {
		log.Printf("[bridge] reply to %s failed: %v", req.Channel, err)
	}
}
