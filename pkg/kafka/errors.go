package kafka

import (
	"errors"
	"net"
	"strings"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")

	ErrInvalidMessage = errors.New("invalid message")

	ErrEmptyKey = errors.New("message key cannot be empty")

	ErrEmptyValue = errors.New("message value cannot be empty")
)

type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient covers broker and network failures worth retrying.
	ErrorTypeTransient
	// ErrorTypePermanent covers messages the broker will never accept.
	ErrorTypePermanent
)

var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"temporary failure",
}

// ClassifyError decides whether a publish failure should be retried or
// parked on the dead letter topic.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrEmptyValue) {
		return ErrorTypePermanent
	}

	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		for _, e := range werrs {
			if e != nil && ClassifyError(e) == ErrorTypeTransient {
				return ErrorTypeTransient
			}
		}
		return ErrorTypePermanent
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if kerr.Temporary() || kerr.Timeout() {
			return ErrorTypeTransient
		}
		return ErrorTypePermanent
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}
