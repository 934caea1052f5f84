package registry

import (
	"context"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

// Store is the persistence surface behind a Registry. Implementations must
// make Insert conditional: of several concurrent Inserts for one endpoint,
// exactly one reports true.
type Store interface {
	// Insert stores rec unless its endpoint exists. Reports whether it wrote.
	Insert(ctx context.Context, rec subscription.Record) (bool, error)
	// Delete removes endpoint and reports whether it existed.
	Delete(ctx context.Context, endpoint string) (bool, error)
	// Get returns the record for endpoint or ErrNotFound.
	Get(ctx context.Context, endpoint string) (subscription.Record, error)
	// Scan calls fn for every stored record. A non-nil error from fn stops
	// the scan and is returned unchanged.
	Scan(ctx context.Context, fn func(subscription.Record) error) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
