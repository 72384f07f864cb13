package services

import (
	"strings"

	"github.com/google/uuid"
)

const (
	TasksCollection = "Tasks"
	UsersCollection = "Users"
)

func NewID() string {
	return uuid.New().String()
}

// CanonicalID returns id in canonical form, or "" when id is not a valid
// document reference.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return ""
	}
	return u.String()
}

// NormalizeIDs deduplicates ids, drops empty entries and canonicalises the
// rest. Entries that are not valid references are returned in invalid.
func NormalizeIDs(ids []string) (valid []string, invalid []string) {
	valid = []string{}
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id := CanonicalID(raw)
		if id == "" {
			invalid = append(invalid, raw)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)
	}
	return valid, invalid
}

// compactIDs deduplicates ids and drops empty entries, preserving order.
func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toInterfaces(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
