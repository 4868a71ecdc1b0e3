package memory

import "context"

// Snapshotter is a store whose contents can be captured and restored.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Transactor gives a group of memory stores all-or-nothing writes by
// snapshotting them before fn runs and restoring them if it fails.
type Transactor struct {
	stores []Snapshotter
}

func NewTransactor(stores ...Snapshotter) *Transactor {
	return &Transactor{stores: stores}
}

// WithinTx implements repository.Transactor. Nested calls join the outer
// snapshot.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.Snapshot())
	}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type txKey struct{}
