// Package nodes maps every workflow node type to the handler that computes
// its result. Source nodes return the value stored on the node, generative
// nodes validate their inputs and call a capability, and preview passes its
// input through.
//
// The Dispatcher is a provider.RequestResponse so the engine can wrap it in
// the same middleware as any other backend.
package nodes
