package validate

import (
	"fmt"

	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/vocab"
)

// legalTransitions is the LEGAL_TRANSITIONS table from spec.md §4.2: every
// state maps to the set of states a subsequent packet may legally target.
// SAFEMODE is reachable from any state (IntegrityAlert override), encoded
// by checking it separately in FSM below rather than repeating it in every
// row.
var legalTransitions = map[vocab.FSMState]map[vocab.FSMState]bool{
	vocab.StateIdle: {
		vocab.StatePerceive: true,
		vocab.StateOrient:   true,
		vocab.StateEscalate: true,
		vocab.StateSafemode: true,
	},
	vocab.StatePerceive: {
		vocab.StateOrient:   true,
		vocab.StateEscalate: true,
	},
	vocab.StateOrient: {
		vocab.StateDecide:   true,
		vocab.StateOrient:   true,
		vocab.StateEscalate: true,
	},
	vocab.StateDecide: {
		vocab.StateExecute:  true, // a WRITE/MIXED directive's token is checked by gate 3 rule 5; the Decision's outcome is not checked by any gate
		vocab.StateVerify:   true, // VERIFY_FIRST
		vocab.StateEscalate: true,
		vocab.StateIdle:     true, // DEFER
	},
	vocab.StateVerify: {
		vocab.StateDecide:    true,
		vocab.StateAuthorize: true,
		vocab.StateEscalate:  true,
	},
	vocab.StateAuthorize: {
		vocab.StateExecute:  true,
		vocab.StateEscalate: true,
	},
	vocab.StateExecute: {
		vocab.StateReport:   true,
		vocab.StateSafemode: true,
	},
	vocab.StateReport: {
		vocab.StateIdle:     true,
		vocab.StateOrient:   true, // if BeliefUpdate follows
		vocab.StateComplete: true,
	},
	vocab.StateEscalate: {
		vocab.StateIdle:     true,
		vocab.StateSafemode: true,
		vocab.StateComplete: true,
	},
	vocab.StateSafemode: {},
	vocab.StateComplete: {},
}

// FSM runs gate 2 (spec.md §4.2): the packet's type implies a target FSM
// state via the fixed PacketType.FSMTarget mapping, and the transition
// from current to that target must be listed in legalTransitions. A
// self-transition is legal only where the table lists it (ORIENT ->
// ORIENT); any other unlisted edge, self-loops included, is rejected.
// IntegrityAlert bypasses the table and always yields SAFEMODE.
func FSM(current vocab.FSMState, p packet.Packet) (Result, vocab.FSMState) {
	target, ok2 := p.Header.PacketType.FSMTarget()
	if !ok2 {
		return fail(fmt.Sprintf("packet type %q has no FSM target mapping", p.Header.PacketType)), current
	}

	// IntegrityAlert may fire SAFEMODE from any state (spec.md §4.2: "Any
	// state → SAFEMODE (on IntegrityAlert)").
	if p.Header.PacketType == vocab.PacketIntegrityAlert {
		return ok(), vocab.StateSafemode
	}

	allowed, known := legalTransitions[current]
	if !known || !allowed[target] {
		return fail(fmt.Sprintf("illegal transition %s -> %s for packet type %q", current, target, p.Header.PacketType)), current
	}
	return ok(), target
}
