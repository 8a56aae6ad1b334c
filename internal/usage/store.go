package usage

import "context"

// Mutator edits rec in place. exists is false when the store holds no record
// yet and rec is zero. Returning write=false leaves the store untouched;
// returning an error aborts the update.
type Mutator func(rec *Record, exists bool) (write bool, err error)

// Store persists usage records. Update runs fn and the write as one atomic
// read-modify-write per user.
type Store interface {
	Get(ctx context.Context, userID string) (Record, error)
	Update(ctx context.Context, userID string, fn Mutator) (Record, error)
}
