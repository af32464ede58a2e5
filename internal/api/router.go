package api

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"deskmote/internal/input"
	"deskmote/internal/network"
	"deskmote/internal/protocol"
	"deskmote/internal/session"
)

// readPump consumes one connection's inbound messages in arrival order.
// Binary messages are provider frames for the relay bus; everything else is
// a JSON control message. No message error here is fatal to the connection.
func (s *Server) readPump(c *session.Conn, ws *websocket.Conn, local bool) {
	defer c.Close()

	ws.SetReadLimit(maxInboundMessage)
	ws.SetReadDeadline(time.Now().Add(readWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WS: read error: %v", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(readWait))

		if msgType == websocket.BinaryMessage {
			s.relay.Broadcast(c, data)
			continue
		}

		if len(data) > protocol.MaxControlMessage {
			log.Printf("WS: dropping oversize control message (%d bytes)", len(data))
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WS: invalid message format: %v", err)
			continue
		}

		// Frame requests arrive at refresh rate and are serialized by the
		// in-flight guard instead; everything else gets the duplicate window.
		if c.ShouldDrop(data, msg.Type == protocol.TypeRequestFrame) {
			continue
		}

		s.route(c, local, msg)
	}
}

// route dispatches one control message by type. Unrecognized types are
// logged and ignored, never fatal.
func (s *Server) route(c *session.Conn, local bool, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeGetIP:
		ip, err := network.LocalIP()
		if err != nil {
			log.Printf("API: local IP lookup failed: %v", err)
		}
		c.SendJSON(protocol.TypeServerIP, protocol.ServerIPPayload{IP: ip})

	case protocol.TypeGenerateToken:
		if !local {
			log.Printf("API: ignoring generate-token from remote caller")
			return
		}
		tok := s.tokens.Issue()
		log.Printf("Token: issued new pairing token")
		c.SendJSON(protocol.TypeTokenGenerated, protocol.TokenGeneratedPayload{Token: tok})

	case protocol.TypeUpdateConfig:
		var p protocol.UpdateConfigPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.SendJSON(protocol.TypeConfigUpdated, protocol.ConfigUpdatedPayload{OK: false, Error: "invalid payload"})
			return
		}
		if err := s.cfgMgr.Update(p.Key, p.Value); err != nil {
			c.SendJSON(protocol.TypeConfigUpdated, protocol.ConfigUpdatedPayload{Key: p.Key, OK: false, Error: err.Error()})
			return
		}
		c.SendJSON(protocol.TypeConfigUpdated, protocol.ConfigUpdatedPayload{Key: p.Key, OK: true})

	case protocol.TypeStartMirror:
		s.mirror.Start(c)

	case protocol.TypeStopMirror:
		s.mirror.Stop(c)

	case protocol.TypeStartProvider:
		c.SetProvider(true)

	case protocol.TypeRequestFrame:
		s.mirror.RequestFrame(c)

	case protocol.TypeMove:
		var p protocol.MovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid move payload: %v", err)
			return
		}
		c.Normalizer.Move(p.DX, p.DY)

	case protocol.TypeClick:
		var p protocol.ClickPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid click payload: %v", err)
			return
		}
		if err := c.Normalizer.Click(p.Button, p.Pressed); err != nil {
			log.Printf("Input: click failed: %v", err)
		}

	case protocol.TypeScroll:
		var p protocol.ScrollPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid scroll payload: %v", err)
			return
		}
		c.Normalizer.Scroll(p.DX, p.DY)

	case protocol.TypeZoom:
		var p protocol.ZoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid zoom payload: %v", err)
			return
		}
		if err := c.Normalizer.Zoom(p.Delta); err != nil {
			log.Printf("Input: zoom failed: %v", err)
		}

	case protocol.TypeKey:
		var p protocol.KeyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid key payload: %v", err)
			return
		}
		if err := c.Normalizer.Key(p.Name); err != nil {
			log.Printf("Input: key failed: %v", err)
		}

	case protocol.TypeCombo:
		var p protocol.ComboPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid combo payload: %v", err)
			return
		}
		if err := c.Normalizer.Combo(p.Names); err != nil {
			if errors.Is(err, input.ErrEmptyCombo) {
				log.Printf("Input: rejecting combo with no resolvable keys")
				return
			}
			log.Printf("Input: combo failed: %v", err)
		}

	case protocol.TypeText:
		var p protocol.TextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Printf("WS: invalid text payload: %v", err)
			return
		}
		if err := c.Normalizer.Text(p.Value); err != nil {
			log.Printf("Input: text failed: %v", err)
		}

	default:
		log.Printf("WS: ignoring unrecognized message type %q", msg.Type)
	}
}
