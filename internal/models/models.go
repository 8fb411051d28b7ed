// package models defines the data model for the library catalog service
package models

import (
	"context"
)

// Model defines the base interface for all persistent models in the catalog.
// Implementations include Asset, Status, Branch, Card and Checkout.
type Model interface {
	Key() int64      // Key returns the store-generated identifier, zero before the model is persisted
	Validate() error // Validate checks if the model can be written and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
//
// Catalog records are append-only: there is no update or delete.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error    // Create inserts model and assigns its identifier
	Get(ctx context.Context, id int64) (T, error) // Get retrieves a model by its identifier
	List(ctx context.Context) ([]T, error)        // List retrieves all models ordered by identifier
}
