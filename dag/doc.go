// Package dag schedules and runs a directed acyclic graph of nodes.
//
// Sort orders nodes with Kahn's algorithm using a FIFO queue, so the
// order is reproducible: initially ready nodes keep their node-list order
// and successors are released in edge-list order. Engine.Execute runs
// that order one node at a time, feeds each node the results of its
// upstream nodes and stops at the first failure.
package dag
