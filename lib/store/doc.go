// Package store provides a high-level interface for key-value storage operations
// with advanced features like expiration, deletion scheduling, and unified error handling.
// It serves as an abstraction layer over the lower-level db.KVDB implementations, adding
// functionality such as write index management and standardized error reporting.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Pluggable storage backend architecture through DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. All implementations share this common interface, allowing
//     applications to switch between different storage backends without code changes.
//     The interface methods return custom Error types that provide detailed information
//     about operation results.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages. This system allows applications to make informed
//     decisions based on specific error conditions rather than generic errors.
//     Errors of the database are wrapped, so errors.Is keeps working on them.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances, providing dependency injection and flexible configuration of
//     storage backends.
//
// Implementations:
//
//   - Local Store (lstore): A simple implementation that directly utilizes a
//     db.KVDB instance. It manages write index progression internally using
//     atomic operations to ensure thread safety.
//     Available in the "github.com/ValentinKolb/pKV/lib/store/lstore" package.
//
// Prefix Operations:
//
//	Keys are hierarchical. Scan returns a snapshot of a scope and DeletePrefix
//	drops a whole scope in one step, which is what cache invalidation by entity
//	or entity type is built on (see lib/cache).
//
// This interface-driven approach allows applications to:
//   - Switch storage backends without touching application logic
//   - Handle errors in a consistent and type-safe manner across implementations
//   - Abstract storage implementation details from application logic
package store
