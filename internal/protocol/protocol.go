// Package protocol defines the wire messages exchanged over the control
// WebSocket. All control traffic is JSON with a discriminant "type" field;
// screen frames travel as raw binary WebSocket messages with no envelope.
package protocol

import "encoding/json"

// MessageType defines the type of a control message
type MessageType string

// Inbound message types (client -> host)
const (
	// TypeGetIP asks the host for its LAN address
	TypeGetIP MessageType = "get-ip"

	// TypeGenerateToken asks the host to issue a fresh pairing token (local callers only)
	TypeGenerateToken MessageType = "generate-token"

	// TypeUpdateConfig updates an allow-listed configuration key
	TypeUpdateConfig MessageType = "update-config"

	// TypeStartMirror starts the host-native mirror session (cursor stream + frame pulls)
	TypeStartMirror MessageType = "start-mirror"

	// TypeStopMirror stops the mirror session
	TypeStopMirror MessageType = "stop-mirror"

	// TypeStartProvider flags this connection as a browser-capture frame provider
	TypeStartProvider MessageType = "start-provider"

	// TypeRequestFrame pulls a single screen frame
	TypeRequestFrame MessageType = "request-frame"

	// Input command types
	TypeMove   MessageType = "move"
	TypeClick  MessageType = "click"
	TypeScroll MessageType = "scroll"
	TypeZoom   MessageType = "zoom"
	TypeKey    MessageType = "key"
	TypeCombo  MessageType = "combo"
	TypeText   MessageType = "text"
)

// Outbound message types (host -> client)
const (
	// TypeConnected is sent once after admission and carries the host LAN address
	TypeConnected MessageType = "connected"

	// TypeServerIP answers TypeGetIP
	TypeServerIP MessageType = "server-ip"

	// TypeTokenGenerated answers TypeGenerateToken
	TypeTokenGenerated MessageType = "token-generated"

	// TypeConfigUpdated answers TypeUpdateConfig with success or a validation error
	TypeConfigUpdated MessageType = "config-updated"

	// TypeMirrorError reports a failed frame capture without closing the connection
	TypeMirrorError MessageType = "mirror-error"

	// TypeCursorPos streams the pointer position in frame-pixel space
	TypeCursorPos MessageType = "cursor-pos"
)

// MaxControlMessage is the upper bound for a JSON control message. Larger
// control payloads are dropped without closing the connection. Binary frame
// messages are not subject to this bound.
const MaxControlMessage = 10 * 1024

// Message is the generic container for all control messages. Payload is kept
// raw so the router can decode it into the per-type payload struct.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload carries a relative pointer motion
type MovePayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ClickPayload carries a button press or release. Press and release are
// independent events; the host never auto-releases.
type ClickPayload struct {
	Button  string `json:"button"` // "left", "right", "middle"
	Pressed bool   `json:"pressed"`
}

// ScrollPayload carries a two-axis scroll delta
type ScrollPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ZoomPayload carries a pinch-zoom delta
type ZoomPayload struct {
	Delta float64 `json:"delta"`
}

// KeyPayload carries a single named or literal key
type KeyPayload struct {
	Name string `json:"name"`
}

// ComboPayload carries an ordered key combination, e.g. ["ctrl","shift","k"]
type ComboPayload struct {
	Names []string `json:"names"`
}

// TextPayload carries literal text to type
type TextPayload struct {
	Value string `json:"value"`
}

// UpdateConfigPayload carries one allow-listed configuration change
type UpdateConfigPayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ConnectedPayload is sent right after admission
type ConnectedPayload struct {
	IP string `json:"ip"`
}

// ServerIPPayload answers a get-ip request
type ServerIPPayload struct {
	IP string `json:"ip"`
}

// TokenGeneratedPayload carries a freshly issued pairing token
type TokenGeneratedPayload struct {
	Token string `json:"token"`
}

// ConfigUpdatedPayload reports the outcome of an update-config request
type ConfigUpdatedPayload struct {
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// MirrorErrorPayload reports a failed capture. Unsupported distinguishes a
// compositor environment the host cannot capture from a transient failure,
// so the client can fall back to the browser-capture relay path.
type MirrorErrorPayload struct {
	Message     string `json:"message"`
	Unsupported bool   `json:"unsupported"`
}

// CursorPosPayload is the pointer position scaled into frame-pixel space
type CursorPosPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Encode marshals a typed message ready for the wire
func Encode(t MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}
