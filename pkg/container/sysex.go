package container

import "github.com/cespare/xxhash/v2"

type sysexEntry struct {
	offset, length int
	port           int32
}

type sysexKey struct {
	port int32
	hash uint64
}

// SysExTable is the content-addressed SysEx dedup store keyed by
// (port-number, byte-sequence): identical payloads on identical ports
// collapse to the same index. It's the same shape as a hash-bucket blob
// store — an arena plus an offset/length index, xxHash64 for the bucket
// key, exact-bytes compare to resolve any collision.
type SysExTable struct {
	arena   []byte
	entries []sysexEntry
	buckets map[sysexKey][]int
}

// NewSysExTable returns an empty dedup table.
func NewSysExTable() *SysExTable {
	return &SysExTable{buckets: make(map[sysexKey][]int)}
}

// Add inserts data (including any bracketing status/terminator bytes the
// caller wants preserved) under port, returning its table index. An
// identical (port, data) pair already present returns the existing index.
func (t *SysExTable) Add(port int32, data []byte) int {
	key := sysexKey{port: port, hash: xxhash.Sum64(data)}
	for _, idx := range t.buckets[key] {
		e := t.entries[idx]
		if e.port == port && string(t.arena[e.offset:e.offset+e.length]) == string(data) {
			return idx
		}
	}

	offset := len(t.arena)
	t.arena = append(t.arena, data...)
	idx := len(t.entries)
	t.entries = append(t.entries, sysexEntry{offset: offset, length: len(data), port: port})
	t.buckets[key] = append(t.buckets[key], idx)
	return idx
}

// Len returns the number of distinct SysEx entries.
func (t *SysExTable) Len() int { return len(t.entries) }

// Get returns the bytes and port number stored at index.
func (t *SysExTable) Get(index int) (data []byte, port int32) {
	e := t.entries[index]
	return t.arena[e.offset : e.offset+e.length], e.port
}
