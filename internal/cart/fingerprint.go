package cart

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Selections maps a modifier group id to the chosen option ids.
type Selections map[string][]string

// Canonical returns a copy with groups lacking a choice dropped and option ids
// sorted and de-duplicated.
func (s Selections) Canonical() Selections {
	out := make(Selections, len(s))
	for groupID, ids := range s {
		if len(ids) == 0 {
			continue
		}
		uniq := make([]string, 0, len(ids))
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}
		sort.Strings(uniq)
		out[groupID] = uniq
	}
	return out
}

func (s Selections) clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

type selectionPair struct {
	Group   string   `json:"g"`
	Options []string `json:"o"`
}

// Fingerprint derives the line key for a product and its selections. Selection
// order never changes the key.
func Fingerprint(productID int64, selections Selections) string {
	canon := selections.Canonical()

	groups := make([]string, 0, len(canon))
	for g := range canon {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	pairs := make([]selectionPair, 0, len(groups))
	for _, g := range groups {
		pairs = append(pairs, selectionPair{Group: g, Options: canon[g]})
	}

	// a slice of structs with string fields always marshals
	raw, _ := json.Marshal(pairs)
	return strconv.FormatInt(productID, 10) + "-" + string(raw)
}
