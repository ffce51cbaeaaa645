/*
Package ports defines the driven ports (interfaces) of cardflow.

These interfaces decouple the editor from concrete storage backends, so the same flow
can live in memory, on disk, in Redis, in SQLite or in a Loam repository.

# Key Interfaces

  - SlotStore: key/value persistence of the named slots (last saved flow, assistant profile).
  - Lister: optional enumeration of the stored slots.
  - Watchable: optional change notification for hot-reload.
  - ScriptArchive: keeps generated scripts as documents.
*/
package ports
