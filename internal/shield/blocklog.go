package shield

import "sync"

// BlockLog is an ordered record of blocked navigation destinations.
// Entries are unique by URL and kept most-recent-first. Not persisted.
type BlockLog struct {
	mu   sync.RWMutex
	urls []string
	seen map[string]struct{}
}

// NewBlockLog creates an empty log.
func NewBlockLog() *BlockLog {
	return &BlockLog{seen: make(map[string]struct{})}
}

// Add prepends a destination. Empty strings and duplicates are no-ops;
// returns true when the entry was recorded.
func (b *BlockLog) Add(url string) bool {
	if url == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.seen[url]; dup {
		return false
	}
	b.seen[url] = struct{}{}
	b.urls = append([]string{url}, b.urls...)
	return true
}

// Entries returns a copy of the log, most recent first.
func (b *BlockLog) Entries() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.urls))
	copy(out, b.urls)
	return out
}

// Len returns the number of distinct blocked destinations.
func (b *BlockLog) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.urls)
}

// Clear empties the log.
func (b *BlockLog) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.urls = nil
	b.seen = make(map[string]struct{})
}
