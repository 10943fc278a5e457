package feed

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// mergeWindow is the largest time gap between two grouped entries.
	mergeWindow = 3 * time.Hour
	// maxMerged is the largest number of distinct key values in one group.
	maxMerged = 5
)

// MergeByKey groups entry with the adjacent, more recent entry prev when all
// their parameters other than key agree. It returns entry unchanged when
// they cannot be grouped; otherwise a new entry whose Child is prev.
func MergeByKey(key string, entry, prev *Entry) *Entry {
	if entry == nil || prev == nil {
		return entry
	}
	if entry.Event.App != prev.Event.App ||
		entry.Event.Subject != prev.Event.Subject ||
		entry.Event.Object.Type != prev.Event.Object.Type {
		return entry
	}
	gap := entry.Timestamp.Sub(prev.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	if gap > mergeWindow {
		return entry
	}

	combined, params, ok := combineParameters(key, entry.RichParams, prev.RichParams)
	if !ok || combined < 1 || combined > maxMerged {
		return entry
	}

	subject := strings.ReplaceAll(entry.RichSubject, "{"+key+"}", groupPlaceholder(key, combined))
	ts := entry.Timestamp
	if prev.Timestamp.After(ts) {
		ts = prev.Timestamp
	}

	merged := *entry
	merged.RichSubject = subject
	merged.RichParams = params
	merged.ParsedSubject = parseSubject(subject, params)
	merged.Timestamp = ts
	merged.Child = prev
	return &merged
}

// combineParameters renumbers the key parameters of both entries as key1..keyN,
// dropping duplicates, and requires every other parameter to be identical.
// An entry already grouped under another key never combines: its renumbered
// parameters stand for several values, not one.
func combineParameters(key string, current, previous map[string]Parameter) (int, map[string]Parameter, bool) {
	params := make(map[string]Parameter, len(current)+len(previous))
	combined := 0

	for _, side := range [][2]map[string]Parameter{{current, previous}, {previous, current}} {
		own, other := side[0], side[1]
		for _, k := range orderedKeys(key, own) {
			p := own[k]
			if isGroupKey(key, k) {
				if !hasGroupValue(key, params, p) {
					combined++
					params[key+strconv.Itoa(combined)] = p
				}
				continue
			}
			if isRenumbered(k) {
				return 0, nil, false
			}
			if q, ok := other[k]; !ok || q != p {
				return 0, nil, false
			}
			params[k] = p
		}
	}
	return combined, params, true
}

// orderedKeys lists group keys by their numeric suffix, then the rest by name.
func orderedKeys(key string, params map[string]Parameter) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := isGroupKey(key, keys[i]), isGroupKey(key, keys[j])
		if gi != gj {
			return gi
		}
		if gi {
			return groupIndex(key, keys[i]) < groupIndex(key, keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func isGroupKey(key, k string) bool {
	if !strings.HasPrefix(k, key) {
		return false
	}
	suffix := k[len(key):]
	if suffix == "" {
		return true
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

// isRenumbered reports whether k is a grouped name such as "file2".
func isRenumbered(k string) bool {
	base := strings.TrimRight(k, "0123456789")
	return base != "" && base != k
}

func groupIndex(key, k string) int {
	n, _ := strconv.Atoi(k[len(key):])
	return n
}

func hasGroupValue(key string, params map[string]Parameter, p Parameter) bool {
	for k, q := range params {
		if isGroupKey(key, k) && q == p {
			return true
		}
	}
	return false
}

// groupPlaceholder lists key1..keyN newest first: "{key2} and {key1}".
func groupPlaceholder(key string, n int) string {
	names := make([]string, 0, n)
	for i := n; i >= 1; i-- {
		names = append(names, "{"+key+strconv.Itoa(i)+"}")
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
