package feed

// MergeFunc groups entry with the adjacent entry prev under key.
type MergeFunc func(key string, entry, prev *Entry) *Entry

// Merger decides which keys adjacent entries are grouped by.
type Merger struct {
	merge MergeFunc
}

// NewMerger creates a Merger. A nil merge func defaults to MergeByKey.
func NewMerger(merge MergeFunc) *Merger {
	if merge == nil {
		merge = MergeByKey
	}
	return &Merger{merge: merge}
}

// MergeIfEligible groups entry with prev, the entry rendered just before it in
// the same pass. A change of client kind always starts a new group. Long mode
// falls back to grouping by file when grouping by actor did not apply.
func (m *Merger) MergeIfEligible(sess *Session, entry, prev *Entry, mode Mode) *Entry {
	client := entry.Event.SubjectParams.Client
	if sess.lastClient != client {
		sess.lastClient = client
		return entry
	}

	merged := m.merge("actor", entry, prev)
	if mode == ModeLong && merged.Child == nil {
		merged = m.merge("file", merged, prev)
	}
	return merged
}
