package domain

import (
	"fmt"
	"strings"
)

// Locator addresses one history entry inside the requests tree.
type Locator struct {
	User       string `json:"user" validate:"required"`
	RequestID  string `json:"request_id" validate:"required"`
	Collection string `json:"collection,omitempty"`
	Timestamp  string `json:"timestamp" validate:"required"`
}

// CollectionOrDefault returns the sub-collection, history when unset.
func (l Locator) CollectionOrDefault() string {
	if l.Collection == "" {
		return HistoryCollection
	}
	return l.Collection
}

// EntryPath is requests/{user}/{requestId}/{collection}/{timestamp}.
func (l Locator) EntryPath() string {
	return strings.Join([]string{RequestsRoot, l.User, l.RequestID, l.CollectionOrDefault(), l.Timestamp}, "/")
}

// StatusPath is the status field of the addressed entry.
func (l Locator) StatusPath() string {
	return l.EntryPath() + "/status"
}

// Validate rejects empty or multi-segment parts.
func (l Locator) Validate() error {
	parts := map[string]string{"user": l.User, "request_id": l.RequestID, "collection": l.CollectionOrDefault(), "timestamp": l.Timestamp}
	for name, part := range parts {
		if strings.TrimSpace(part) == "" || strings.Contains(part, "/") {
			return fmt.Errorf("invalid locator %s %q", name, part)
		}
	}
	return nil
}

// SplitEmail yields the (name, roll) pair shown for a request owner: the local
// part split at its first underscore. Missing parts fall back to the raw email
// and "--".
func SplitEmail(email string) (name, roll string) {
	local, _, _ := strings.Cut(email, "@")
	name, roll, _ = strings.Cut(local, "_")
	if i := strings.IndexByte(roll, '_'); i >= 0 {
		roll = roll[:i]
	}
	if name == "" {
		name = email
	}
	if roll == "" {
		roll = "--"
	}
	return name, roll
}
