package history

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

func makeHistory(n int, size int) []*schema.Message {
	out := make([]*schema.Message, 0, n)
	for i := 0; i < n; i++ {
		content := strings.Repeat("x", size)
		if i%2 == 0 {
			out = append(out, schema.UserMessage(content))
		} else {
			out = append(out, schema.AssistantMessage(content, nil))
		}
	}
	return out
}

func TestCharHeuristic(t *testing.T) {
	t.Parallel()

	msgs := []*schema.Message{
		schema.UserMessage("abcd"),
		schema.UserMessage("abcde"),
		schema.UserMessage(""),
		schema.UserMessage("héllo"),
	}
	if got := (CharHeuristic{}).Estimate(msgs); got != 1+2+0+2 {
		t.Fatalf("Estimate() = %d, want 5", got)
	}
}

func TestPrepareEmptyHistory(t *testing.T) {
	t.Parallel()

	got := NewPreparer().Prepare("sys", nil, "hi", 4000)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Role != schema.System || got[0].Content != "sys" {
		t.Fatalf("first message = %+v", got[0])
	}
	if got[1].Role != schema.User || got[1].Content != "hi" {
		t.Fatalf("last message = %+v", got[1])
	}
}

func TestPrepareShortHistoryUnchanged(t *testing.T) {
	t.Parallel()

	p := NewPreparer()
	// over budget but within the retention window
	hist := makeHistory(p.KeepFirst+p.KeepRecent, 10000)

	got := p.Prepare("sys", hist, "hi", 2000)
	if len(got) != len(hist)+2 {
		t.Fatalf("len = %d, want %d", len(got), len(hist)+2)
	}
	for i, m := range hist {
		if got[i+1] != m {
			t.Fatalf("message %d replaced", i)
		}
	}
	for _, m := range got {
		if m.Content == DefaultPlaceholder {
			t.Fatal("placeholder inserted into short history")
		}
	}
}

func TestPrepareUnderBudgetUnchanged(t *testing.T) {
	t.Parallel()

	hist := makeHistory(30, 4)
	got := NewPreparer().Prepare("sys", hist, "hi", 4000)
	if len(got) != 32 {
		t.Fatalf("len = %d, want 32", len(got))
	}
}

func TestPrepareCompactsLongHistory(t *testing.T) {
	t.Parallel()

	p := NewPreparer()
	for _, n := range []int{10, 25, 200} {
		hist := makeHistory(n, 2000)
		got := p.Prepare("sys", hist, "hi", 4000)

		want := p.KeepFirst + 1 + p.KeepRecent + 2
		if len(got) != want {
			t.Fatalf("n=%d len = %d, want %d", n, len(got), want)
		}
		if got[1] != hist[0] {
			t.Fatalf("n=%d first history message not kept", n)
		}
		if got[2].Role != schema.System || got[2].Content != DefaultPlaceholder {
			t.Fatalf("n=%d placeholder = %+v", n, got[2])
		}
		if got[len(got)-2] != hist[n-1] {
			t.Fatalf("n=%d most recent message not kept", n)
		}
		if len(hist) != n {
			t.Fatalf("input mutated")
		}
	}
}

func TestCompactIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPreparer()
	hist := makeHistory(40, 2000)
	once := p.Compact(hist, 3500)
	twice := p.Compact(once, 3500)

	if len(once) != len(twice) {
		t.Fatalf("len once=%d twice=%d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Role != twice[i].Role || once[i].Content != twice[i].Content {
			t.Fatalf("message %d differs after second compaction", i)
		}
	}
}

type fixedEstimator int

func (f fixedEstimator) Estimate([]*schema.Message) int { return int(f) }

func TestCompactUsesEstimator(t *testing.T) {
	t.Parallel()

	p := NewPreparer()
	p.Estimator = fixedEstimator(1)
	hist := makeHistory(40, 5000)
	if got := p.Compact(hist, 10); len(got) != 40 {
		t.Fatalf("len = %d, want 40", len(got))
	}
}

func TestFromRecords(t *testing.T) {
	t.Parallel()

	got := FromRecords([]storex.Message{
		{Role: storex.RoleUser, Content: "where is my order"},
		{Role: storex.RoleAssistant, Content: "it shipped"},
		{Role: storex.RoleSystem, Content: "note"},
	})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Role != schema.User || got[1].Role != schema.Assistant || got[2].Role != schema.System {
		t.Fatalf("roles = %s %s %s", got[0].Role, got[1].Role, got[2].Role)
	}
	if got[1].Content != "it shipped" {
		t.Fatalf("content = %q", got[1].Content)
	}
}
