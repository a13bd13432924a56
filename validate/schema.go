// Package validate implements the three-gate validator stack of spec.md
// §4.1–§4.3: schema (gate 1), FSM (gate 2), and cross-policy invariants
// (gate 3). Each gate returns a Result rather than an error so the runner
// can uniformly synthesize an IntegrityAlert on rejection (spec.md §4.8
// "handle_rejection").
package validate

import (
	"fmt"
	"time"

	"github.com/sixlayer/ace/packet"
)

// Result is the uniform outcome of any gate.
type Result struct {
	OK     bool
	Errors []string
}

func ok() Result { return Result{OK: true} }

func fail(errs ...string) Result { return Result{OK: false, Errors: errs} }

// PacketLookup resolves a previously-seen packet by id, used for
// timestamp-monotonicity checks against previous_packet_id. The runner's
// episode history satisfies this.
type PacketLookup interface {
	Lookup(id string) (packet.Packet, bool)
}

// Schema runs gate 1 (spec.md §4.1): required fields, enum membership,
// MCP invariants, header/payload type agreement, and timestamp
// monotonicity relative to previous_packet_id when resolvable.
func Schema(p packet.Packet, history PacketLookup) Result {
	if err := p.Header.Validate(); err != nil {
		return fail(err.Error())
	}
	if err := p.MCP.Validate(); err != nil {
		return fail(err.Error())
	}
	if p.Payload == nil {
		return fail("payload is nil")
	}
	if p.Payload.PacketType() != p.Header.PacketType {
		return fail(fmt.Sprintf("header.packet_type %q disagrees with payload type %q",
			p.Header.PacketType, p.Payload.PacketType()))
	}
	if err := p.Payload.Validate(); err != nil {
		return fail(err.Error())
	}

	if p.Header.PreviousPacketID != nil && history != nil {
		prev, found := history.Lookup(p.Header.PreviousPacketID.String())
		if found && p.Header.CreatedAt.Before(prev.Header.CreatedAt) {
			return fail(fmt.Sprintf("created_at %s precedes previous packet's %s",
				p.Header.CreatedAt.Format(time.RFC3339Nano), prev.Header.CreatedAt.Format(time.RFC3339Nano)))
		}
	}

	return ok()
}
