// Package services implements the catalog operations behind the [Catalog] interface.
//
// # Asset Service
//
// [AssetService] is the single entry point for asset reads and writes. Each call runs to
// completion against the store and commits writes before it returns; the service itself
// holds no state between calls beyond its database handle.
//
// Lookups by id never treat a missing asset as an error:
//   - [AssetService.Get] and [AssetService.GetCurrentLocation] return nil
//   - [AssetService.GetTitle] returns ok == false
//   - [AssetService.GetDeweyIndex] returns ""
//   - [AssetService.GetType] returns "Video"
//
// [AssetService.GetType] keeps that last behavior for compatibility. [AssetService.Kind] reads
// the persisted variant tag instead and fails with [shared.ErrAssetNotFound] for unknown ids.
//
// # Transactions
//
// [AssetService.WithTx] runs a function against a copy of the service bound to one
// transaction. Everything the copy does commits or rolls back together.
//
// # Errors
//
//   - [shared.ErrUnknownVariant] : Add was given an asset without a book or video variant
//   - [shared.ErrVariantMismatch] : a book-only or video-only field was read from the other kind
//   - [shared.ErrCatalogNotEmpty] : [SeedCatalog] was run against a populated store
//
// Store faults are returned with the repository's context wrapped around them.
//
// # Tracing
//
// Every operation opens a span on the "lbx/services" tracer carrying the asset id.
package services
