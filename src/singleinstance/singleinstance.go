package singleinstance

// This file defines the API for single-instance ownership and remote capture
// triggers.

import (
	"context"

	"screen-ocr-translate/src/llm"
)

// Server owns the TCP endpoint and answers capture requests.
type Server interface {
	// Start listens on the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess sends the recognition result. Detached requests get an
	// empty result as soon as the capture starts.
	RespondSuccess(res llm.Result) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request represents a single capture request.
type Request struct {
	// Wait keeps the connection open until the capture finishes and returns
	// its result; otherwise the resident acknowledges and shows the card
	// itself.
	Wait bool
}

// Client delegates a capture to a resident server.
type Client interface {
	// TryCapture scans the port range, performs the handshake and delegates.
	// If no resident is found, returns delegated=false, err=nil.
	TryCapture(ctx context.Context, wait bool) (delegated bool, res llm.Result, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
