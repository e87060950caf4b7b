// Package history builds bounded model inputs from a conversation transcript.
package history

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

const (
	DefaultKeepFirst   = 1
	DefaultKeepRecent  = 8
	DefaultPlaceholder = "[Earlier conversation history compressed]"

	// reservedTokens is held back from the caller's limit for the system prompt and new user turn.
	reservedTokens = 500
)

// TokenEstimator approximates the token cost of a message sequence.
type TokenEstimator interface {
	Estimate(msgs []*schema.Message) int
}

// CharHeuristic charges ceil(characters/4) per message.
type CharHeuristic struct{}

func (CharHeuristic) Estimate(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		n := utf8.RuneCountInString(m.Content)
		total += (n + 3) / 4
	}
	return total
}

type Preparer struct {
	Estimator   TokenEstimator
	KeepFirst   int
	KeepRecent  int
	Placeholder string
}

func NewPreparer() *Preparer {
	return &Preparer{
		Estimator:   CharHeuristic{},
		KeepFirst:   DefaultKeepFirst,
		KeepRecent:  DefaultKeepRecent,
		Placeholder: DefaultPlaceholder,
	}
}

// Compact drops the middle of history behind a placeholder when its estimated
// cost exceeds maxTokens. The input slice is never modified. Compaction is
// best effort: the result may still exceed maxTokens.
func (p *Preparer) Compact(history []*schema.Message, maxTokens int) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	if p.Estimator.Estimate(history) <= maxTokens || len(history) <= p.KeepFirst+p.KeepRecent {
		return append(out, history...)
	}

	out = append(out, history[:p.KeepFirst]...)
	out = append(out, schema.SystemMessage(p.Placeholder))
	return append(out, history[len(history)-p.KeepRecent:]...)
}

// Prepare returns [system, compacted history..., user] for one model call.
func (p *Preparer) Prepare(systemPrompt string, history []*schema.Message, userMessage string, tokenLimit int) []*schema.Message {
	compacted := p.Compact(history, tokenLimit-reservedTokens)

	msgs := make([]*schema.Message, 0, len(compacted)+2)
	msgs = append(msgs, schema.SystemMessage(systemPrompt))
	msgs = append(msgs, compacted...)
	return append(msgs, schema.UserMessage(userMessage))
}

// FromRecords converts persisted messages to role-tagged model messages.
func FromRecords(records []storex.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(records))
	for _, r := range records {
		switch r.Role {
		case storex.RoleAssistant:
			out = append(out, schema.AssistantMessage(r.Content, nil))
		case storex.RoleSystem:
			out = append(out, schema.SystemMessage(r.Content))
		default:
			out = append(out, schema.UserMessage(r.Content))
		}
	}
	return out
}
