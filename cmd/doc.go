// Package cmd implements the command-line interface of pKV. All commands work on an
// in-process cache, nothing is shared between two invocations.
//
// The package is organized into several subpackages:
//
//   - shell: An interactive shell for the cache manager (set, get, search, prune, lock, ...)
//   - bench: Benchmarks of the radix tree and the database built on top of it
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set with an environment variable prefixed with PKV_
// (e.g. PKV_LOG_LEVEL=debug) or in a .env / .env.local file.
//
// See pkv -help for a list of all commands.
package cmd
