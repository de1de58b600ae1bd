// Package kafka publishes run lifecycle events to Kafka.
//
// The producer subpackage wraps a kafka-go Writer; Component manages its
// lifecycle and checks broker reachability. Events are JSON envelopes keyed
// by run id so a run's events stay ordered within a partition.
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  topic: canvasflow.runs
package kafka
