// Package bus implements the two directional channels packets travel on
// (spec.md §4.6): northbound (telemetry up) and southbound (directives
// down), sharing an abstract base and routing rule keyed by
// vocab.LayerSource.Order(). Grounded directly on
// original_source/src/omen/buses/{base,northbound,southbound}.py.
package bus

import (
	"sync"
	"time"

	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/vocab"
)

// Handler processes a packet delivered to a subscribed layer.
type Handler func(packet.Packet) error

// DeliveryFailure records one handler's failure during a publish fan-out;
// fan-out continues past individual failures (spec.md §4.6).
type DeliveryFailure struct {
	Layer     vocab.LayerSource
	Err       error
	Timestamp time.Time
}

// Message is one append-only log entry: the packet plus which layers it
// was actually delivered to, and any failures.
type Message struct {
	Packet      packet.Packet
	DeliveredTo []vocab.LayerSource
	Failures    []DeliveryFailure
}

// Filter selects a subset of the message log by correlation id, source
// layer, and packet type (SPEC_FULL.md §12.4).
type Filter struct {
	CorrelationID *string
	SourceLayer   *vocab.LayerSource
	PacketType    *vocab.PacketType
}

func (f Filter) matches(m Message) bool {
	if f.CorrelationID != nil && m.Packet.Header.CorrelationID.String() != *f.CorrelationID {
		return false
	}
	if f.SourceLayer != nil && m.Packet.Header.LayerSource != *f.SourceLayer {
		return false
	}
	if f.PacketType != nil && m.Packet.Header.PacketType != *f.PacketType {
		return false
	}
	return true
}

// direction decides, given the routing order of a message's source and a
// candidate subscriber, whether delivery is permitted.
type direction func(sourceOrder, targetOrder int) bool

// Bus is the shared base: a subscriber table keyed by layer, an
// append-only message log, and a publish fan-out gated by a direction
// rule. The subscriber table is read-mostly and safe for concurrent
// publish/subscribe (spec.md §5's "bus registry... must be safe for
// concurrent publish and subscribe").
type Bus struct {
	mu          sync.RWMutex
	subscribers map[vocab.LayerSource][]Handler
	log         []Message
	allow       direction
}

func newBus(allow direction) *Bus {
	return &Bus{
		subscribers: make(map[vocab.LayerSource][]Handler),
		allow:       allow,
	}
}

// Subscribe registers handler to receive packets routed to layer.
func (b *Bus) Subscribe(layer vocab.LayerSource, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[layer] = append(b.subscribers[layer], handler)
}

// Publish fans p out to every subscribed layer the direction rule
// permits, optionally narrowed to a single target_layer recipient
// (spec.md §4.6: "Targeted messages bypass broadcast... but still only if
// the direction rule permits"). INTEGRITY always receives on northbound,
// and may send to any on southbound, per the routing rule.
func (b *Bus) Publish(p packet.Packet, targetLayer *vocab.LayerSource) (delivered []vocab.LayerSource, failures []DeliveryFailure) {
	b.mu.RLock()
	sourceOrder := p.Header.LayerSource.Order()

	type candidate struct {
		layer    vocab.LayerSource
		handlers []Handler
	}
	var candidates []candidate
	for layer, handlers := range b.subscribers {
		if targetLayer != nil && layer != *targetLayer {
			continue
		}
		isIntegritySource := p.Header.LayerSource == vocab.Integrity
		if layer == vocab.Integrity || isIntegritySource || b.allow(sourceOrder, layer.Order()) {
			candidates = append(candidates, candidate{layer: layer, handlers: handlers})
		}
	}
	b.mu.RUnlock()

	for _, c := range candidates {
		ran := false
		for _, h := range c.handlers {
			ran = true
			if err := h(p); err != nil {
				failures = append(failures, DeliveryFailure{Layer: c.layer, Err: err, Timestamp: time.Now().UTC()})
				continue
			}
		}
		if ran {
			delivered = append(delivered, c.layer)
		}
	}

	b.mu.Lock()
	b.log = append(b.log, Message{Packet: p, DeliveredTo: delivered, Failures: failures})
	b.mu.Unlock()

	return delivered, failures
}

// Messages returns the subset of the append-only log matching filter.
func (b *Bus) Messages(filter Filter) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Message
	for _, m := range b.log {
		if filter.matches(m) {
			out = append(out, m)
		}
	}
	return out
}
