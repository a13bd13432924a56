// Package layer implements the uniform LLM-backed layer adapter (spec.md
// §4.7): each of the six reasoning layers plus INTEGRITY calls the LLM
// client with a fixed system prompt, parses the reply into zero-or-more
// typed packets, and is restricted to an emission whitelist. Supplemented
// from original_source/src/omen/layers/contracts.py's ContractEnforcer
// (SPEC_FULL.md §12.5).
package layer

import "github.com/sixlayer/ace/vocab"

// Contract is the emission whitelist from spec.md §4.7's table, keyed by
// layer source.
type Contract struct {
	allowed map[vocab.LayerSource]map[vocab.PacketType]bool
}

// DefaultContract returns the fixed whitelist from spec.md §4.7.
func DefaultContract() *Contract {
	c := &Contract{allowed: make(map[vocab.LayerSource]map[vocab.PacketType]bool)}

	set := func(source vocab.LayerSource, types ...vocab.PacketType) {
		m := make(map[vocab.PacketType]bool, len(types))
		for _, t := range types {
			m[t] = true
		}
		c.allowed[source] = m
	}

	set(vocab.L1, vocab.PacketIntegrityAlert, vocab.PacketBeliefUpdate)
	set(vocab.L2, vocab.PacketBeliefUpdate)
	set(vocab.L3, vocab.PacketBeliefUpdate)
	set(vocab.L4, vocab.PacketBeliefUpdate)
	set(vocab.L5,
		vocab.PacketDecision, vocab.PacketVerificationPlan, vocab.PacketToolAuthorizationToken,
		vocab.PacketTaskDirective, vocab.PacketEscalation, vocab.PacketBeliefUpdate)
	set(vocab.L6, vocab.PacketObservation, vocab.PacketTaskResult, vocab.PacketBeliefUpdate)
	// INTEGRITY: IntegrityAlert always, plus an override of any other type.
	for _, pt := range []vocab.PacketType{
		vocab.PacketObservation, vocab.PacketBeliefUpdate, vocab.PacketDecision,
		vocab.PacketVerificationPlan, vocab.PacketToolAuthorizationToken, vocab.PacketTaskDirective,
		vocab.PacketTaskResult, vocab.PacketEscalation, vocab.PacketIntegrityAlert,
	} {
		if c.allowed[vocab.Integrity] == nil {
			c.allowed[vocab.Integrity] = make(map[vocab.PacketType]bool)
		}
		c.allowed[vocab.Integrity][pt] = true
	}

	return c
}

// Allowed implements validate.EmissionWhitelist.
func (c *Contract) Allowed(source vocab.LayerSource, packetType vocab.PacketType) bool {
	m, ok := c.allowed[source]
	if !ok {
		return false
	}
	return m[packetType]
}

// EnforceEmission restates Allowed for callers that only need a
// predicate. The runner does not call it; it reaches the same rule
// through gate 3 (validate.Invariant's EmissionWhitelist check).
func (c *Contract) EnforceEmission(source vocab.LayerSource, packetType vocab.PacketType) bool {
	return c.Allowed(source, packetType)
}
