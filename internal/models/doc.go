// Package models defines the catalog entities and the persistence interfaces the repositories implement.
//
// An [Asset] is a tagged union: the common fields live on the struct and the kind-specific
// fields live in its [Variant], which is either a [Book] or a [Video]. The variant is sealed,
// so code reaches author, ISBN, Dewey index or director only through a type switch or the
// comma-ok accessors [Asset.Book] and [Asset.Video].
//
// Supporting entities:
//   - [Status] : availability of an asset
//   - [Branch] : physical location an asset is shelved at
//   - [Card] : a patron's borrowing card with its [Checkout] records
//
// All persistent entities implement [Model]. The [Repository] interface defines the
// append-only data access shared by the repositories package.
package models
