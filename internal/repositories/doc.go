// Package repositories implements SQL persistence for the catalog entities.
//
// Every repository wraps a [DBTX], which is satisfied by both *sqlx.DB and *sqlx.Tx, so the same code runs
// against the pool or inside a transaction. Queries are written with '?' placeholders and rebound for the
// connected driver (sqlite3, postgres or pgx). Identifiers come from INSERT ... RETURNING id.
//
// Key Implementations:
//   - [AssetRepository] : Books and videos in one table, tagged by a persisted kind column
//   - [StatusRepository] : Availability statuses, looked up by name
//   - [BranchRepository] : Library branches assets are shelved at
//   - [CardRepository] : Library cards with their checkouts
//   - [CheckoutRepository] : Loans linking an asset to a card
//
// Lookups of a missing row return the entity's not-found sentinel from package shared.
package repositories
