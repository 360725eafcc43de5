// Package sse turns a chat-completions event stream into ordered frames.
//
// The body is consumed as arbitrary byte chunks. Each chunk passes through an
// incremental UTF-8 Decoder (multi-byte characters may straddle chunk
// boundaries), then a LineBuffer that holds back the trailing partial line,
// then ParseFrame. The result is independent of how the network fragmented
// or coalesced the bytes.
package sse
