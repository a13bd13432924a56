// Package packet defines the packet schema and MCP envelope: the typed
// message format every layer emits, carrying the policy fields that gate
// downstream action (spec §3.2).
//
// Grounded on original_source/src/omen/schemas/header.py and
// schemas/packets/observation.py (pydantic models), re-expressed as plain
// Go structs with explicit JSON tags in the style of the teacher's
// core/tool.go request/response types.
package packet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/vocab"
)

// Header carries identification, routing, and traceability fields common
// to every packet (spec §3.2 "Header").
type Header struct {
	PacketID          uuid.UUID        `json:"packet_id"`
	PacketType        vocab.PacketType `json:"packet_type"`
	CreatedAt         time.Time        `json:"created_at"`
	LayerSource       vocab.LayerSource `json:"layer_source"`
	CorrelationID     uuid.UUID        `json:"correlation_id"`
	CampaignID        *uuid.UUID       `json:"campaign_id,omitempty"`
	PreviousPacketID  *uuid.UUID       `json:"previous_packet_id,omitempty"`
}

// NewHeader builds a header with a fresh packet id and created_at, leaving
// the caller to set type/source/correlation.
func NewHeader(packetType vocab.PacketType, source vocab.LayerSource, correlationID uuid.UUID) Header {
	return Header{
		PacketID:      uuid.New(),
		PacketType:    packetType,
		CreatedAt:     time.Now().UTC(),
		LayerSource:   source,
		CorrelationID: correlationID,
	}
}

// Validate checks the structural invariants of the header in isolation
// (full cross-packet checks, e.g. timestamp monotonicity against
// previous_packet_id, live in validate.Schema).
func (h Header) Validate() error {
	if h.PacketID == uuid.Nil {
		return fmt.Errorf("packet: header.packet_id must be set")
	}
	if !h.PacketType.Valid() {
		return fmt.Errorf("packet: header.packet_type %q is not a recognized packet type", h.PacketType)
	}
	if !h.LayerSource.Valid() {
		return fmt.Errorf("packet: header.layer_source %q is not a recognized layer", h.LayerSource)
	}
	if h.CorrelationID == uuid.Nil {
		return fmt.Errorf("packet: header.correlation_id must be set")
	}
	if h.CreatedAt.IsZero() {
		return fmt.Errorf("packet: header.created_at must be set")
	}
	return nil
}
