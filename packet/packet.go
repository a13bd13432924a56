package packet

import (
	"encoding/json"
	"fmt"

	"github.com/sixlayer/ace/vocab"
)

// Packet is the envelope every layer emits: a Header, an MCP policy
// envelope, and exactly one of the nine typed Payload variants. The wire
// form is a single flat JSON object — header fields top-level under
// "header", "mcp" for the policy envelope, and "payload" holding the
// type-specific body, with header.packet_type acting as the discriminator
// (spec.md §6.4, testable property P1: "header.packet_type discriminator
// equals payload class tag").
type Packet struct {
	Header  Header
	MCP     MCP
	Payload Payload
}

// New builds a Packet and stamps its header's packet_type from the
// payload's own PacketType(), so the two can never disagree at
// construction time.
func New(header Header, mcp MCP, payload Payload) Packet {
	header.PacketType = payload.PacketType()
	return Packet{Header: header, MCP: mcp, Payload: payload}
}

// Validate checks header, MCP, and discriminator consistency. It does not
// perform the three-gate cross-packet validation — that lives in package
// validate and needs episode-level context this type doesn't carry.
func (p Packet) Validate() error {
	if err := p.Header.Validate(); err != nil {
		return err
	}
	if err := p.MCP.Validate(); err != nil {
		return err
	}
	if p.Payload == nil {
		return fmt.Errorf("packet: payload must not be nil")
	}
	if p.Payload.PacketType() != p.Header.PacketType {
		return fmt.Errorf("packet: header.packet_type %q does not match payload type %q",
			p.Header.PacketType, p.Payload.PacketType())
	}
	return nil
}

// wireEnvelope is the flat on-wire shape. Payload is kept as raw JSON so
// MarshalJSON/UnmarshalJSON can resolve its concrete type from
// header.packet_type.
type wireEnvelope struct {
	Header  Header          `json:"header"`
	MCP     MCP             `json:"mcp"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON renders the packet's typed Payload as a plain JSON object so
// the wire form carries no Go-specific type tagging beyond
// header.packet_type, matching original_source's flat packet JSON.
func (p Packet) MarshalJSON() ([]byte, error) {
	if p.Payload == nil {
		return nil, fmt.Errorf("packet: cannot marshal packet with nil payload")
	}
	payloadJSON, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("packet: marshal payload: %w", err)
	}
	return json.Marshal(wireEnvelope{Header: p.Header, MCP: p.MCP, Payload: payloadJSON})
}

// UnmarshalJSON decodes header and mcp directly, then dispatches payload
// decoding on header.packet_type — the sole discriminator (spec.md §6.4).
func (p *Packet) UnmarshalJSON(data []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("packet: unmarshal envelope: %w", err)
	}
	payload, err := decodePayload(env.Header.PacketType, env.Payload)
	if err != nil {
		return err
	}
	p.Header = env.Header
	p.MCP = env.MCP
	p.Payload = payload
	return nil
}

// decodePayload unmarshals raw payload JSON into the concrete struct named
// by packetType. An unrecognized or mismatched packet_type is rejected
// here rather than silently producing an empty payload.
func decodePayload(packetType vocab.PacketType, raw json.RawMessage) (Payload, error) {
	switch packetType {
	case vocab.PacketObservation:
		var v ObservationPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal ObservationPayload: %w", err)
		}
		return v, nil
	case vocab.PacketBeliefUpdate:
		var v BeliefUpdatePayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal BeliefUpdatePayload: %w", err)
		}
		return v, nil
	case vocab.PacketDecision:
		var v DecisionPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal DecisionPayload: %w", err)
		}
		return v, nil
	case vocab.PacketVerificationPlan:
		var v VerificationPlanPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal VerificationPlanPayload: %w", err)
		}
		return v, nil
	case vocab.PacketToolAuthorizationToken:
		var v ToolAuthorizationPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal ToolAuthorizationPayload: %w", err)
		}
		return v, nil
	case vocab.PacketTaskDirective:
		var v TaskDirectivePayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal TaskDirectivePayload: %w", err)
		}
		return v, nil
	case vocab.PacketTaskResult:
		var v TaskResultPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal TaskResultPayload: %w", err)
		}
		return v, nil
	case vocab.PacketEscalation:
		var v EscalationPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal EscalationPayload: %w", err)
		}
		return v, nil
	case vocab.PacketIntegrityAlert:
		var v IntegrityAlertPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("packet: unmarshal IntegrityAlertPayload: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("packet: unrecognized header.packet_type %q", packetType)
	}
}
