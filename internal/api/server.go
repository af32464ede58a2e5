// Package api provides the control server: the HTTP endpoint that admits
// WebSocket connections and the router that dispatches their messages.
package api

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"deskmote/internal/config"
	"deskmote/internal/network"
	"deskmote/internal/protocol"
	"deskmote/internal/session"
	"deskmote/internal/token"
)

const (
	// maxInboundMessage bounds any single WebSocket read, sized for provider
	// frames; the tighter control-message bound is enforced in the router.
	maxInboundMessage = 8 << 20

	// readWait is the read deadline, refreshed on every message and pong
	readWait = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The host serves trusted first-party clients on the LAN; admission is
	// decided by address class and token, not by origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the connection gate plus message router.
type Server struct {
	cfgMgr   *config.Manager
	tokens   token.Store
	registry *session.Registry
	mirror   *session.Mirror
	relay    *session.RelayBus
}

// NewServer wires the control server.
func NewServer(cfgMgr *config.Manager, tokens token.Store, registry *session.Registry, mirror *session.Mirror, relay *session.RelayBus) *Server {
	return &Server{
		cfgMgr:   cfgMgr,
		tokens:   tokens,
		registry: registry,
		mirror:   mirror,
		relay:    relay,
	}
}

// Handler returns the HTTP handler tree (exposed for tests).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return s.recoverMiddleware(mux)
}

// Start listens and serves until the listener fails. Uses an explicit tcp4
// listener to avoid IPv6-only binding issues on Windows.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)

	if ips, err := network.LocalIPs(); err == nil {
		for _, ip := range ips {
			log.Printf("API: local IPv4 %s", ip)
		}
	}
	log.Printf("API: starting control server on %s", addr)

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{Handler: s.Handler()}
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// recoverMiddleware prevents a panicking handler from crashing the host
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("API: panic recovered: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleWS is the connection gate. Loopback callers are admitted as local;
// everyone else needs a recognized bearer token, checked before the upgrade
// so a rejected caller never gets a session or an application handshake.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	presented := r.URL.Query().Get("token")
	local := network.IsLoopback(r.RemoteAddr)

	admit, persist := decideAdmission(local, presented, s.tokens)
	if !admit {
		log.Printf("API: rejecting remote connection from %s", r.RemoteAddr)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if persist {
		s.tokens.Store(presented)
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("API: upgrade failed: %v", err)
		return
	}

	c := s.registry.Create(ws)
	log.Printf("API: admitted %s connection from %s", admissionClass(local), r.RemoteAddr)

	ip, err := network.LocalIP()
	if err != nil {
		log.Printf("API: local IP lookup failed: %v", err)
	}
	c.SendJSON(protocol.TypeConnected, protocol.ConnectedPayload{IP: ip})

	go s.readPump(c, ws, local)
}

// decideAdmission classifies an upgrade attempt. Remote callers need a token
// the store recognizes. A presented token is persisted (refreshing its
// freshness) only when the caller is remote, hence just validated, or the
// store already knows it: a local caller may not seed arbitrary bearer
// credentials, but the host can refresh tokens it issued for itself.
func decideAdmission(local bool, presented string, tokens token.Store) (admit, persist bool) {
	if !local {
		if presented == "" || !tokens.IsKnown(presented) {
			return false, false
		}
		return true, true
	}
	return true, presented != "" && tokens.IsKnown(presented)
}

func admissionClass(local bool) string {
	if local {
		return "local"
	}
	return "remote"
}
