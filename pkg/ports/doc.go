/*
Package ports defines the driven ports (interfaces) of teamboard.

These interfaces decouple the board from concrete backends, so teams can live in
memory, on disk, in SQLite or in Redis, and the taxonomy can come from the
embedded document, a file or a Loam repository.

# Key Interfaces

  - TeamStore: persists Team records.
  - PickerStore: keeps open picker sessions between driver events.
  - TaxonomyLoader: builds the capability taxonomy from a source.
  - DistributedLocker: serialises access to a picker session across replicas.
*/
package ports
