package job

import "context"

// Store is durable keyed storage for whole Job records. Records are
// stored by value, embedded images included: a retrieved record is
// complete without any side lookups. Writes are whole-record upserts,
// last writer wins.
type Store interface {
	// Put upserts the full record keyed by job id.
	Put(ctx context.Context, j *Job) error
	// Get returns the record, or (nil, nil) when the id is unknown.
	Get(ctx context.Context, id string) (*Job, error)
	// GetAll returns every record, most recently updated first.
	GetAll(ctx context.Context) ([]*Job, error)
	// Delete removes one record; deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error
	// Clear removes every record.
	Clear(ctx context.Context) error
}
