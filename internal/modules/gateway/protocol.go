// Package gateway is the WebSocket fan-out layer: authenticated
// subscriptions, per-subscription backlog for late subscribers, pending
// subscriptions, publish rate-limiting, and canonical routing keys.
//
// Grounded on the donor's gateway Hub (internal/modules/gateway/gateway),
// whose Run loop / register-unregister-broadcast channel shape and Redis
// pub/sub cross-replica bridge are kept, but socket.io's room/namespace
// model is replaced with raw gorilla/websocket frames carrying this
// spec's own subscribe/unsubscribe/event envelope protocol.
package gateway

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/restaurant-bff/core/internal/domain"
)

// ProtocolVersion is the only client->server envelope version understood.
const ProtocolVersion = 1

// InboundMessageType is the closed set of client->server envelope types.
type InboundMessageType string

const (
	InboundSubscribe   InboundMessageType = "subscribe"
	InboundUnsubscribe InboundMessageType = "unsubscribe"
	InboundEvent       InboundMessageType = "event"
)

// InboundEnvelope is the canonical client->server shape.
type InboundEnvelope struct {
	V         int                 `json:"v"`
	Type      InboundMessageType  `json:"type"`
	Channel   domain.Channel      `json:"channel"`
	RequestID string              `json:"requestId"`
	SessionID string              `json:"sessionId,omitempty"`
}

// parseInboundEnvelope normalizes the wire frame, accepting legacy shapes
// where requestId lived at payload.requestId, data.requestId, or reqId —
// the donor's parseInboundWebMessage tolerance for loosely-shaped client
// payloads, applied once at the edge so no downstream code needs to know
// the legacy layouts.
func parseInboundEnvelope(raw []byte) (InboundEnvelope, bool) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return InboundEnvelope{}, false
	}

	env.Type = InboundMessageType(strings.TrimSpace(string(env.Type)))
	if env.Type == "" {
		return InboundEnvelope{}, false
	}

	if env.RequestID == "" {
		env.RequestID = firstNonEmpty(
			gjson.GetBytes(raw, "requestId").String(),
			gjson.GetBytes(raw, "payload.requestId").String(),
			gjson.GetBytes(raw, "data.requestId").String(),
			gjson.GetBytes(raw, "reqId").String(),
		)
	}
	if env.RequestID == "" {
		return InboundEnvelope{}, false
	}

	if env.Channel == "" {
		channel := firstNonEmpty(
			gjson.GetBytes(raw, "channel").String(),
			gjson.GetBytes(raw, "payload.channel").String(),
		)
		env.Channel = domain.Channel(channel)
	}
	if env.Channel != domain.ChannelSearch && env.Channel != domain.ChannelAssistant {
		return InboundEnvelope{}, false
	}

	return env, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

// SubNackReason is the closed set of codes on sub_nack.
type SubNackReason string

const (
	ReasonSessionMismatch  SubNackReason = "session_mismatch"
	ReasonRateLimited      SubNackReason = "rate_limit_exceeded"
	ReasonInvalid          SubNackReason = "invalid"
)

type subAckMessage struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Pending   bool           `json:"pending"`
}

type subNackMessage struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Reason    SubNackReason  `json:"reason"`
}

type progressMessage struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Stage     string         `json:"stage"`
	Status    string         `json:"status"`
	Progress  *float64       `json:"progress,omitempty"`
	Message   string         `json:"message,omitempty"`
}

type readyMessage struct {
	Type        string         `json:"type"`
	Channel     domain.Channel `json:"channel"`
	RequestID   string         `json:"requestId"`
	Stage       string         `json:"stage"`
	ResultURL   string         `json:"resultUrl"`
	ResultCount int            `json:"resultCount"`
}

type errorMessage struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Stage     string         `json:"stage"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
}

type assistantMessage struct {
	Type      string                   `json:"type"`
	Channel   domain.Channel           `json:"channel"`
	RequestID string                   `json:"requestId"`
	Payload   domain.AssistantMessage  `json:"payload"`
}

type assistantErrorMessage struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Payload   struct {
		ErrorCode domain.AssistantErrorCode `json:"errorCode"`
	} `json:"payload"`
}

// NewSubAck builds a sub_ack frame.
func NewSubAck(channel domain.Channel, requestID string, pending bool) []byte {
	b, _ := json.Marshal(subAckMessage{Type: "sub_ack", Channel: channel, RequestID: requestID, Pending: pending})
	return b
}

// NewSubNack builds a sub_nack frame.
func NewSubNack(channel domain.Channel, requestID string, reason SubNackReason) []byte {
	b, _ := json.Marshal(subNackMessage{Type: "sub_nack", Channel: channel, RequestID: requestID, Reason: reason})
	return b
}

// NewProgress builds a progress frame on the search channel.
func NewProgress(requestID, stage, status, message string, progress *float64) []byte {
	b, _ := json.Marshal(progressMessage{
		Type: "progress", Channel: domain.ChannelSearch, RequestID: requestID,
		Stage: stage, Status: status, Progress: progress, Message: message,
	})
	return b
}

// NewReady builds a ready frame on the search channel.
func NewReady(requestID, resultURL string, resultCount int) []byte {
	b, _ := json.Marshal(readyMessage{
		Type: "ready", Channel: domain.ChannelSearch, RequestID: requestID,
		Stage: "done", ResultURL: resultURL, ResultCount: resultCount,
	})
	return b
}

// NewError builds an error frame on the search channel, code drawn from
// the closed PipelineErrorKind set.
func NewError(requestID, stage string, code domain.PipelineErrorKind, message string) []byte {
	b, _ := json.Marshal(errorMessage{
		Type: "error", Channel: domain.ChannelSearch, RequestID: requestID,
		Stage: stage, Code: string(code), Message: message,
	})
	return b
}

// NewAssistant builds an assistant frame on the assistant channel.
func NewAssistant(requestID string, payload domain.AssistantMessage) []byte {
	b, _ := json.Marshal(assistantMessage{Type: "assistant", Channel: domain.ChannelAssistant, RequestID: requestID, Payload: payload})
	return b
}

// NewAssistantError builds an assistant_error frame.
func NewAssistantError(requestID string, code domain.AssistantErrorCode) []byte {
	msg := assistantErrorMessage{Type: "assistant_error", Channel: domain.ChannelAssistant, RequestID: requestID}
	msg.Payload.ErrorCode = code
	b, _ := json.Marshal(msg)
	return b
}
