// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the billing service
// from the backend client and the cache implementation.
package port

import (
	"context"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
)

// InvoiceFetcher retrieves invoices from the utilities backend.
type InvoiceFetcher interface {
	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ListPropertyInvoices(ctx context.Context, propertyID string) ([]domain.Invoice, error)
}

// PropertyFetcher retrieves the full property record, used when an invoice
// only carries a partial reference.
type PropertyFetcher interface {
	GetProperty(ctx context.Context, propertyID string) (*domain.Property, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
