// Package subway holds the transit network graph: stations, the directed
// connections between them and the active/degraded state of each connection.
//
// # Model
//
// Stations are appended and never removed, so a StationID stays valid for the
// whole process lifetime. Connections live in an adjacency list indexed by the
// originating station. The loader links two stations by adding one connection
// in each direction with the same line and branch tags.
//
// # Outages
//
// DisableStation does not remove anything from the graph. It marks every
// connection into and out of the station as inactive, and the route finder
// penalizes inactive connections instead of refusing them.
//
// # Thread-Safety
//
// Subway does no locking of its own. The dispatch package owns the single
// shared instance and guards it with a sync.RWMutex.
package subway
