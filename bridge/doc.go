// Package bridge implements the boundary core for embedding HieraChain as a
// foreign-callable library.
//
// This package contains:
//   - Panic guards converting internal faults into status codes (boundary.go)
//   - Argument decoding and configuration construction (args.go)
//   - Start outcome mapping for the embedded node (start.go)
//   - The asynchronous RPC query dispatcher (dispatch.go)
//
// Everything here is plain Go so it can be tested without cgo; the actual
// C ABI lives in the libhierachain package, which builds on these primitives.
package bridge
