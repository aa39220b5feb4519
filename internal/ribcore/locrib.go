package ribcore

import (
	"sort"
	"strings"
)

// SelectBestPaths groups internal routes by name and selects, for each
// name, the best path: the single shortest node-path, ties broken by
// lexicographic comparison of the serialized path (§4.7, §9 "Open question:
// tiebreak determinism" — resolved here as the natural total order).
func SelectBestPaths(s *State) map[string]LocRibEntry {
	if len(s.Internal.Items) == 0 {
		return map[string]LocRibEntry{}
	}

	byName := make(map[string][]InternalRoute)
	var order []string
	for _, r := range s.Internal.Items {
		if _, seen := byName[r.Name]; !seen {
			order = append(order, r.Name)
		}
		byName[r.Name] = append(byName[r.Name], r)
	}

	out := make(map[string]LocRibEntry, len(byName))
	for _, name := range order {
		candidates := byName[name]
		if len(candidates) == 1 {
			out[name] = LocRibEntry{
				BestPath:        candidates[0],
				SelectionReason: SelectionReasonOnlyCandidate,
			}
			continue
		}

		sorted := append([]InternalRoute(nil), candidates...)
		sort.SliceStable(sorted, func(i, j int) bool {
			li, lj := len(sorted[i].NodePath), len(sorted[j].NodePath)
			if li != lj {
				return li < lj
			}
			return serializeNodePath(sorted[i].NodePath) < serializeNodePath(sorted[j].NodePath)
		})

		out[name] = LocRibEntry{
			BestPath:        sorted[0],
			Alternatives:    sorted[1:],
			SelectionReason: SelectionReasonShortestNodePath,
		}
	}
	return out
}

func serializeNodePath(path []string) string {
	return strings.Join(path, "/")
}
