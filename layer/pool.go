package layer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/llmclient"
	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/vocab"
)

// Input is the uniform payload handed to a layer before each LLM call
// (spec.md §4.7).
type Input struct {
	RecentPackets []packet.Packet
	LedgerSnapshot ledger.Snapshot
	ToolsState     vocab.ToolsState
	PromptContext  map[string]interface{}
}

// Output is zero-or-more typed packets parsed from one LLM reply, plus
// any text the parser couldn't turn into a valid packet (kept for
// diagnostics, not treated as an error by itself — spec.md §9: "Parsing
// is lenient").
type Output struct {
	Packets      []packet.Packet
	UnparsedText []string
}

// SystemPrompts maps each layer to its fixed system prompt, the closest
// thing this repo has to the teacher's per-agent instruction templates.
var SystemPrompts = map[vocab.LayerSource]string{
	vocab.L1: "You are the Aspirational layer: the top-level mission and constitutional guardrails. Emit BeliefUpdate or IntegrityAlert packets only.",
	vocab.L2: "You are the Global Strategy layer: long-horizon planning over the current mission. Emit BeliefUpdate packets only.",
	vocab.L3: "You are the Agent Model layer: maintains the model of the acting agent's own capabilities and state. Emit BeliefUpdate packets only.",
	vocab.L4: "You are the Executive Function layer: translates strategy into executable task framing. Emit BeliefUpdate packets only.",
	vocab.L5: "You are the Cognitive Control layer: decides, verifies, authorizes, and directs. Emit Decision, VerificationPlan, ToolAuthorizationToken, TaskDirective, Escalation, or BeliefUpdate packets.",
	vocab.L6: "You are the Task Prosecution layer: the sole vat boundary, executing tools against the outside world. Emit Observation, TaskResult, or BeliefUpdate packets.",
}

// Pool is the uniform per-layer LLM adapter: it builds a prompt from
// Input, calls the LLM client, and parses the reply into typed packets.
type Pool struct {
	client llmclient.Client
}

// NewPool constructs a Pool backed by client (ordinarily an
// llmclient.Retrying wrapping the real provider, or an llmclient.Mock in
// tests).
func NewPool(client llmclient.Client) *Pool {
	return &Pool{client: client}
}

// Invoke calls the LLM for owner with the given input and parses its
// reply into zero-or-more packets of expectedType. Parse failures are not
// returned as errors — they become empty Output.Packets plus
// UnparsedText, letting the runner (which treats len(packets)==0 as a
// rejection) classify it uniformly as a schema violation per spec.md §4.7 ("Parse failures count as schema
// violations").
func (p *Pool) Invoke(ctx context.Context, owner vocab.LayerSource, input Input, expectedType vocab.PacketType) (Output, error) {
	systemPrompt := SystemPrompts[owner]
	userMessage := serializeInput(input)

	raw, err := p.client.Complete(ctx, systemPrompt, userMessage, llmclient.Options{})
	if err != nil {
		return Output{}, fmt.Errorf("layer: invoking %s: %w", owner, err)
	}

	return filterByType(parseReply(raw), expectedType), nil
}

// filterByType drops packets whose type disagrees with expectedType,
// moving their raw JSON into UnparsedText — a step-contract mismatch is
// treated the same as an unparseable reply (spec.md §4.7, §9).
func filterByType(out Output, expectedType vocab.PacketType) Output {
	filtered := Output{UnparsedText: out.UnparsedText}
	for _, p := range out.Packets {
		if p.Header.PacketType != expectedType {
			raw, _ := json.Marshal(p)
			filtered.UnparsedText = append(filtered.UnparsedText, string(raw))
			continue
		}
		filtered.Packets = append(filtered.Packets, p)
	}
	return filtered
}

func serializeInput(input Input) string {
	data, _ := json.Marshal(struct {
		RecentPackets  []packet.Packet        `json:"recent_packets"`
		LedgerSnapshot ledger.Snapshot         `json:"ledger_snapshot"`
		ToolsState     vocab.ToolsState        `json:"tools_state"`
		PromptContext  map[string]interface{} `json:"prompt_context"`
	}{input.RecentPackets, input.LedgerSnapshot, input.ToolsState, input.PromptContext})
	return string(data)
}

// fencedJSONBlock captures everything between a pair of triple-backtick
// fences rather than matching braces directly — packet JSON always nests
// objects (header/mcp/payload), so a brace-matching pattern would stop at
// the first inner "}" instead of the outer one. Fences don't nest, so
// non-greedy matching up to the next ``` is unambiguous.
var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseReply scans raw for one or more fenced JSON objects (spec.md §9:
// "a reply containing one or more fenced JSON objects is scanned");
// objects failing to unmarshal as a packet are kept in UnparsedText
// rather than raising.
func parseReply(raw string) Output {
	var out Output

	matches := fencedJSONBlock.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		// Fall back to treating the whole reply as one candidate object.
		matches = [][]string{{raw, raw}}
	}

	for _, m := range matches {
		candidate := m[1]
		var p packet.Packet
		if err := json.Unmarshal([]byte(candidate), &p); err != nil {
			out.UnparsedText = append(out.UnparsedText, candidate)
			continue
		}
		out.Packets = append(out.Packets, p)
	}

	return out
}
