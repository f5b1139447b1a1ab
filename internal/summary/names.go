package summary

import (
	"strings"

	"propledger/internal/core"
)

// PropertyNames resolves property ids to display names.
type PropertyNames map[string]string

// NamesFromProperties builds a directory from the owner's properties.
func NamesFromProperties(props []core.Property) PropertyNames {
	names := make(PropertyNames, len(props))
	for _, p := range props {
		names[p.ID] = p.Name
	}
	return names
}

// DisplayName resolves the name a transaction's property is shown under:
// the name carried by the reference, the directory entry for its id,
// the bare id, and finally "Unassigned".
func DisplayName(ref *core.Ref, names PropertyNames) string {
	if ref == nil {
		return core.Unassigned
	}
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	id := strings.TrimSpace(ref.ID)
	if id == "" {
		return core.Unassigned
	}
	if name := strings.TrimSpace(names[id]); name != "" {
		return name
	}
	return id
}

// resolveNames extends the directory with the first name carried by any
// reference to an id the directory does not know, so every record for one
// property id resolves to the same display name.
func resolveNames(txs []core.Transaction, names PropertyNames) PropertyNames {
	out := make(PropertyNames, len(names))
	for id, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out[id] = name
		}
	}
	for _, tx := range txs {
		if tx.Property == nil {
			continue
		}
		id := strings.TrimSpace(tx.Property.ID)
		name := strings.TrimSpace(tx.Property.Name)
		if id == "" || name == "" {
			continue
		}
		if _, ok := out[id]; !ok {
			out[id] = name
		}
	}
	return out
}

// bareRef drops the carried name of a reference with an id, leaving the
// resolved directory to name it.
func bareRef(ref *core.Ref) *core.Ref {
	if ref == nil || strings.TrimSpace(ref.ID) == "" {
		return ref
	}
	return &core.Ref{ID: ref.ID}
}

// searchName is the property name a free-text search looks at: the name
// carried by the reference or its directory entry, never a fallback.
func searchName(ref *core.Ref, names PropertyNames) string {
	if ref == nil {
		return ""
	}
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	return strings.TrimSpace(names[strings.TrimSpace(ref.ID)])
}

func categoryName(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return core.Uncategorized
}
