// Package httpclient is the JSON-over-HTTP client used to reach the
// generation APIs. Non-2xx responses come back as AppErrors whose message
// is the upstream error text, so node failures read the way the provider
// phrased them.
package httpclient
