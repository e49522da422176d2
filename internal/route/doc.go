// Package route finds and renders itineraries over a subway.Subway.
//
// The search is Dijkstra over a binary heap, except that the weight of an
// edge depends on the edge used to reach the current station: staying on the
// same line and branch costs the base edge cost, switching branch costs 2 and
// switching line costs 3. Inactive connections cost an extra 100, so an outage
// discourages a route without making it impossible.
package route
