package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Status enumerates the lifecycle states of a request history entry.
type Status string

const (
	StatusRaised    Status = "raised"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDelivered Status = "delivered"
	StatusReturned  Status = "returned"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusRaised, StatusApproved, StatusRejected, StatusDelivered, StatusReturned}

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Reserved request ids and sub-collections inside a user's request tree.
const (
	RequestsRoot      = "requests"
	PrintRequestID    = "3D_Print"
	MentorSupportID   = "Mentor_Support"
	HistoryCollection = "history"
)

// HistoryEntry is one timestamped record within a request.
type HistoryEntry struct {
	RequestedQty string `json:"requested_qty,omitempty"`
	Status       Status `json:"status,omitempty"`
	SpecialNote  string `json:"special_note,omitempty"`
	Query        string `json:"query,omitempty"`
	Solution     string `json:"solution,omitempty"`
	Time         string `json:"time,omitempty"`
	RequestType  string `json:"request_type,omitempty"`
	Material     string `json:"material,omitempty"`
	Link         string `json:"link,omitempty"`
}

// HistoryEntryFromSnapshot decodes a raw snapshot node. Unknown fields are ignored
// and non-string scalars are rendered as text.
func HistoryEntryFromSnapshot(raw any) HistoryEntry {
	fields, ok := raw.(map[string]any)
	if !ok {
		return HistoryEntry{}
	}
	return HistoryEntry{
		RequestedQty: Text(fields["requestedQty"]),
		Status:       Status(Text(fields["status"])),
		SpecialNote:  Text(fields["specialNote"]),
		Query:        Text(fields["query"]),
		Solution:     Text(fields["solution"]),
		Time:         Text(fields["time"]),
		RequestType:  Text(fields["requestType"]),
		Material:     Text(fields["material"]),
		Link:         Text(fields["link"]),
	}
}

// Text renders a snapshot scalar the way it is displayed.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// ParseMillis reads a millisecond epoch timestamp as stored in history keys and time fields.
func ParseMillis(s string) (time.Time, bool) {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}
