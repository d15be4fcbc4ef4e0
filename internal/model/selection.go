package model

// Selection scopes a lookup to a user's files.
//
// The zero value and AllFiles() select every file the owner has. Only(ids...)
// selects exactly the listed ids, and resolving it fails if any id is unknown
// or belongs to someone else; Only() with no ids selects nothing.
type Selection struct {
	ids        []string
	restricted bool
}

// AllFiles selects every file of the owner.
func AllFiles() Selection { return Selection{} }

// Only selects exactly the given ids. Duplicates are collapsed, first
// occurrence order is kept.
func Only(ids ...string) Selection {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return Selection{ids: out, restricted: true}
}

// SelectionFromRequest maps a wire-level id list onto a Selection: an absent
// or empty list means every file, anything else restricts to those ids.
func SelectionFromRequest(ids []string) Selection {
	if len(ids) == 0 {
		return AllFiles()
	}
	return Only(ids...)
}

// All reports whether the selection is unrestricted.
func (s Selection) All() bool { return !s.restricted }

// IDs returns the requested ids; nil when All() is true.
func (s Selection) IDs() []string {
	if !s.restricted {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
