// Package model provides the core domain types for slipway.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal. This keeps the domain layer
// foundational with no circular dependencies.
//
// Key design constraints:
//   - All ids are opaque strings (UUIDs for generated records)
//   - Commit and Version values are immutable once created
//   - ChangedOrigin is transient: computed per request, never persisted
//   - Lock state is a nullable holder field on the origin, not an entity
package model
