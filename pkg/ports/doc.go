/*
Package ports defines the driven ports (interfaces) of atlas.

These interfaces decouple the build pipeline from external systems, so that
the edit lock, the build ledger and document serving can use different
backends.

# Key Interfaces

  - EditLocker: serializes edits of the narrative sources (lock file or Redis).
  - BuildArchive: ledger of emitted documents (SQLite).
  - DocumentSource: read access to the current document for servers.
*/
package ports
