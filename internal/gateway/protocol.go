package gateway

import (
	"encoding/json"

	"github.com/soyeahso/gacc/internal/loader"
)

// ProtocolVersion is the wire protocol spoken by this server.
const ProtocolVersion = 1

// Frame types.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Event names sent by the server.
const (
	EventChallenge     = "connect.challenge"
	EventConsoleOutput = "console.output"
)

// Frame is the envelope for every WebSocket message; Type says which of
// the field groups is populated.
type Frame struct {
	Type string `json:"type"`

	// req
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// res
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`

	// event
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
}

// ErrorShape is the error body of a failed response.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ConnectParams are sent by the client in the "connect" request.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform,omitempty"`
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token string `json:"token,omitempty"`
}

// HelloOK is the response to a successful connect.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the gateway.
type ServerInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	ConnID  string `json:"connId"`
}

// Features lists the RPC methods and events the server supports.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload int `json:"maxPayload"`
}

// SubmitParams are the params of console.submit.
type SubmitParams struct {
	Line string `json:"line"`
}

// HistoryParams are the params of history.recent.
type HistoryParams struct {
	Limit int `json:"limit"`
}

// MuteParams are the params of console.mute.
type MuteParams struct {
	Muted bool `json:"muted"`
}

// ClientSummary describes one session in clients.list.
type ClientSummary struct {
	ConnID      string `json:"connId"`
	ClientID    string `json:"clientId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	ConnectedAt int64  `json:"connectedAt"` // unix ms
	Submitted   int64  `json:"submitted"`
	Muted       bool   `json:"muted,omitempty"`
}

// CommandInfo describes one registered command in commands.list.
type CommandInfo struct {
	Name   string `json:"name"`
	Usage  string `json:"usage,omitempty"`
	Module string `json:"module"`
}

// ReloadResult is the payload of console.reload.
type ReloadResult struct {
	Commands int           `json:"commands"`
	Modules  int           `json:"modules"`
	Errors   []ReloadError `json:"errors,omitempty"`
}

// ReloadError is one load failure reported by console.reload.
type ReloadError struct {
	Kind    loader.Kind `json:"kind"`
	Module  string      `json:"module"`
	Command string      `json:"command,omitempty"`
	Message string      `json:"message"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeRequest, ID: id, Method: method, Params: raw}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: raw}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Error: &errShape}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeEvent, Event: event, Payload: raw, Seq: seq}, nil
}
