// Package live derives the manager tables from the requests tree and keeps
// them current while anyone is watching.
package live

import (
	"regexp"
	"time"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/store"
)

const placeholder = "--"

// TimeLayout renders request times.
const TimeLayout = "02/01/2006, 15:04:05"

var componentID = regexp.MustCompile(`^\d+$`)

// ComponentRow is one component request history entry.
type ComponentRow struct {
	Index         int            `json:"index"`
	Owner         string         `json:"owner"`
	Name          string         `json:"name"`
	Roll          string         `json:"roll"`
	ComponentID   string         `json:"component_id"`
	ComponentName string         `json:"component_name"`
	Description   string         `json:"description"`
	TotalQty      string         `json:"total_qty"`
	AvailableQty  string         `json:"available_qty"`
	RequestType   string         `json:"request_type"`
	RequestedQty  string         `json:"requested_qty"`
	Status        domain.Status  `json:"status"`
	Time          string         `json:"time"`
	SpecialNote   string         `json:"special_note,omitempty"`
	Locator       domain.Locator `json:"locator"`
}

// PrintRow is one 3D print job.
type PrintRow struct {
	Index       int            `json:"index"`
	Owner       string         `json:"owner"`
	Name        string         `json:"name"`
	RequestType string         `json:"request_type"`
	Material    string         `json:"material"`
	Link        string         `json:"link,omitempty"`
	Status      domain.Status  `json:"status"`
	Time        string         `json:"time"`
	Locator     domain.Locator `json:"locator"`
}

// ChatUser is a user with support messages.
type ChatUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Roll  string `json:"roll"`
}

// ComponentRows walks users, then numeric request ids, then history entries,
// each in collection order, joining every entry against items.
func ComponentRows(requests any, items map[string]domain.InventoryItem, loc *time.Location) []ComponentRow {
	users := store.AsMap(requests)
	rows := []ComponentRow{}
	for _, owner := range store.Keys(users) {
		name, roll := domain.SplitEmail(owner)
		userRequests := store.Child(users, owner)
		for _, id := range store.Keys(userRequests) {
			if !componentID.MatchString(id) {
				continue
			}
			history := store.Child(store.Child(userRequests, id), domain.HistoryCollection)
			item, known := items[id]
			for _, ts := range store.Keys(history) {
				entry := domain.HistoryEntryFromSnapshot(history[ts])
				row := ComponentRow{
					Index:         len(rows) + 1,
					Owner:         owner,
					Name:          name,
					Roll:          roll,
					ComponentID:   id,
					ComponentName: placeholder,
					Description:   placeholder,
					TotalQty:      placeholder,
					AvailableQty:  placeholder,
					RequestType:   firstOf(entry.RequestType, "Normal"),
					RequestedQty:  firstOf(entry.RequestedQty, placeholder),
					Status:        entry.Status,
					Time:          formatTime(entry.Time, ts, loc),
					SpecialNote:   entry.SpecialNote,
					Locator:       domain.Locator{User: owner, RequestID: id, Collection: domain.HistoryCollection, Timestamp: ts},
				}
				if known {
					row.ComponentName = firstOf(item.Name, placeholder)
					row.Description = firstOf(item.Description, placeholder)
					row.TotalQty = firstOf(item.TotalQty, placeholder)
					row.AvailableQty = firstOf(item.AvailableQty, placeholder)
					row.RequestType = firstOf(item.RequestType, entry.RequestType, "Normal")
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// PrintRows lists every user's 3D print history.
func PrintRows(requests any, loc *time.Location) []PrintRow {
	users := store.AsMap(requests)
	rows := []PrintRow{}
	for _, owner := range store.Keys(users) {
		name, _ := domain.SplitEmail(owner)
		history := store.Child(store.Child(store.Child(users, owner), domain.PrintRequestID), domain.HistoryCollection)
		for _, ts := range store.Keys(history) {
			job := domain.HistoryEntryFromSnapshot(history[ts])
			rows = append(rows, PrintRow{
				Index:       len(rows) + 1,
				Owner:       owner,
				Name:        name,
				RequestType: firstOf(job.RequestType, placeholder),
				Material:    firstOf(job.Material, placeholder),
				Link:        job.Link,
				Status:      job.Status,
				Time:        formatTime(job.Time, ts, loc),
				Locator:     domain.Locator{User: owner, RequestID: domain.PrintRequestID, Collection: domain.HistoryCollection, Timestamp: ts},
			})
		}
	}
	return rows
}

// ChatUsers lists users holding support history.
func ChatUsers(requests any) []ChatUser {
	users := store.AsMap(requests)
	out := []ChatUser{}
	for _, owner := range store.Keys(users) {
		history := store.Child(store.Child(store.Child(users, owner), domain.MentorSupportID), domain.HistoryCollection)
		if len(history) == 0 {
			continue
		}
		name, roll := domain.SplitEmail(owner)
		out = append(out, ChatUser{Email: owner, Name: name, Roll: roll})
	}
	return out
}

func formatTime(value, key string, loc *time.Location) string {
	raw := firstOf(value, key)
	t, ok := domain.ParseMillis(raw)
	if !ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			t, ok = parsed, true
		}
	}
	if !ok {
		return raw
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimeLayout)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
