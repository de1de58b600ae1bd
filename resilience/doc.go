// Package resilience holds the fault-tolerance primitives wrapped around
// outbound generation calls and workflow runs: retry with exponential
// backoff, a circuit breaker, a token-bucket rate limiter and a bulkhead.
//
// Each primitive is configured from the service config file:
//
//	capabilities:
//	  resilience:
//	    retry:
//	      max_attempts: 3
//	      initial_backoff: 500ms
//	    circuit_breaker:
//	      max_failures: 5
//	      timeout: 30s
//	    bulkhead:
//	      max_concurrent: 4
package resilience
