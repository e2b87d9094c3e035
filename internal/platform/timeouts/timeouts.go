// Package timeouts defines shared timeout constants used across the
// retriever. Centralizing these values prevents drift between the transport
// layers and makes the durations discoverable.
package timeouts

import "time"

// Retrieve caps a single upstream dataset retrieval call. A failed or slow
// call is final; there is no retry budget behind this value.
const Retrieve = 30 * time.Second

// ReadHeader limits how long the HTTP transport waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP transport waits for in-flight requests
// during graceful shutdown. Longer than Retrieve so in-flight tool calls can
// finish.
const Shutdown = 35 * time.Second
