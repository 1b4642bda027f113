package sync

// SyncContext holds shared sync configuration and run metadata.
// It is immutable after construction and is shared by reference between the
// fetcher, mapper, campaign resolver and sink of a single sync instance.
type SyncContext struct {
	Config         Config
	RunID          string
	RecordRequests bool
}
