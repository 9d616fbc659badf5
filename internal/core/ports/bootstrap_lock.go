package ports

import "context"

// BootstrapLock serializes the bootstrap read-then-write across processes.
type BootstrapLock interface {
	// TryAcquire takes the lock for key. acquired is false when another
	// holder has it; release must be called only when acquired is true.
	TryAcquire(ctx context.Context, key string) (release func(context.Context) error, acquired bool, err error)
}
