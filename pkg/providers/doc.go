// Package providers wires concrete provider integrations into the engine
// contracts. A Registry instance holds the drivers available to one
// service process; it is constructed and injected explicitly, never
// reached through package-level state, so two services in one process
// can carry different driver sets.
package providers
