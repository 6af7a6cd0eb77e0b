package chat

import (
	"time"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/store"
)

// Item kinds in a rendered thread.
const (
	KindDate  = "date"
	KindUser  = "user"
	KindAdmin = "admin"
)

const (
	dateLayout  = "02/01/2006"
	clockLayout = "15:04"

	// EmptyThreadNote is shown for a user without messages.
	EmptyThreadNote = "No messages yet."
	// NoUserHeader is the header before any user is selected.
	NoUserHeader = "Select a user to view messages"
)

// Item is one line of a rendered thread.
type Item struct {
	Kind     string `json:"kind"`
	TS       string `json:"ts,omitempty"`
	Text     string `json:"text"`
	Time     string `json:"time,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

type message struct {
	ts    string
	entry domain.HistoryEntry
}

// messages returns history entries in ascending timestamp order.
func messages(history any) []message {
	node := store.AsMap(history)
	out := make([]message, 0, len(node))
	for _, ts := range store.Keys(node) {
		out = append(out, message{ts: ts, entry: domain.HistoryEntryFromSnapshot(node[ts])})
	}
	return out
}

func hasQuery(msgs []message, ts string) bool {
	for _, m := range msgs {
		if m.ts == ts {
			return m.entry.Query != ""
		}
	}
	return false
}

// RenderThread lays out a history snapshot: a date separator whenever the day
// changes, each query, and each reply with its time. Entries without a query
// are skipped.
func RenderThread(history any, selected string, loc *time.Location) []Item {
	return render(messages(history), selected, loc)
}

func render(msgs []message, selected string, loc *time.Location) []Item {
	items := []Item{}
	lastDate := ""
	first := true
	for _, m := range msgs {
		if m.entry.Query == "" {
			continue
		}
		date := formatMillis(m.ts, dateLayout, loc)
		if first || date != lastDate {
			items = append(items, Item{Kind: KindDate, Text: date})
			lastDate = date
			first = false
		}
		items = append(items, Item{Kind: KindUser, TS: m.ts, Text: m.entry.Query, Selected: m.ts == selected})
		if m.entry.Solution != "" {
			replyAt := m.entry.Time
			if replyAt == "" {
				replyAt = m.ts
			}
			items = append(items, Item{Kind: KindAdmin, TS: m.ts, Text: m.entry.Solution, Time: formatMillis(replyAt, clockLayout, loc)})
		}
	}
	return items
}

func formatMillis(raw, layout string, loc *time.Location) string {
	t, ok := domain.ParseMillis(raw)
	if !ok {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(layout)
}
