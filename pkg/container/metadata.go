package container

// MetadataEntry is a single (timestamp, name, value) metadata triple.
type MetadataEntry struct {
	TimestampMs int64
	Name        string
	Value       string
}

// MetadataTable is an ordered list of metadata triples plus an optional
// cover-art blob.
type MetadataTable struct {
	Entries  []MetadataEntry
	CoverArt []byte
}

// Add appends a metadata entry.
func (m *MetadataTable) Add(timestampMs int64, name, value string) {
	m.Entries = append(m.Entries, MetadataEntry{TimestampMs: timestampMs, Name: name, Value: value})
}
