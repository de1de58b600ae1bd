package kafka

import (
	"context"
	"errors"
	"net"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
)

// errorClass groups publish errors by how the producer reacts to them.
type errorClass int

const (
	classUnknown errorClass = iota
	// classConnection: the broker could not be reached or lost leadership.
	classConnection
	// classTransient: the broker answered but asked for a retry.
	classTransient
	// classRejected: the message itself was refused; retrying cannot help.
	classRejected
)

// Message fragments for errors that arrive untyped, e.g. wrapped dial errors.
var (
	connectionHints = []string{
		"connection refused", "connection reset", "broken pipe", "i/o timeout",
		"no route to host", "network is unreachable", "connection closed", "dial tcp",
		"broker not available", "leader not available",
	}
	rejectedHints = []string{
		"message too large", "invalid topic", "unknown topic", "authorization failed",
	}
	transientHints = []string{"temporary", "timed out", "not enough replicas"}
)

func classify(err error) errorClass {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classUnknown
	}

	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		switch kerr {
		case kafkago.BrokerNotAvailable, kafkago.LeaderNotAvailable,
			kafkago.NotLeaderForPartition, kafkago.NetworkException:
			return classConnection
		case kafkago.MessageSizeTooLarge, kafkago.InvalidTopic, kafkago.UnknownTopicOrPartition,
			kafkago.TopicAuthorizationFailed, kafkago.SASLAuthenticationFailed:
			return classRejected
		}
		if kerr.Temporary() {
			return classTransient
		}
		return classUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return classConnection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, connectionHints):
		return classConnection
	case containsAny(msg, rejectedHints):
		return classRejected
	case containsAny(msg, transientHints):
		return classTransient
	}
	return classUnknown
}

// IsRetryableError reports whether writing the same message again may
// succeed.
func IsRetryableError(err error) bool {
	c := classify(err)
	return c == classConnection || c == classTransient
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
