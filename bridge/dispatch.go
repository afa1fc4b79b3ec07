package bridge

import (
	"errors"
	"runtime"
	"time"
	"unicode/utf8"
)

// QueryTimeout caps the wall-clock time between accepting an RPC query and
// delivering its result.
const QueryTimeout = 5 * time.Minute

// Sentinel payloads substituted for an absent or overdue response.
const (
	emptyResponseText = "empty response"
	timeoutText       = "timeout"
)

// ErrMissingCallback is returned when a query is submitted without a result
// callback.
var ErrMissingCallback = errors.New("rpc query requires a result callback")

// NotifyFunc delivers one result payload to the foreign caller.
type NotifyFunc func(text string)

// queryRunner is the slice of the node client the dispatcher needs.
type queryRunner interface {
	// RPCQuery submits one query and returns a buffered channel that
	// eventually carries the response, or nil for "no response".
	RPCQuery(query string) <-chan *string

	// TrackQuery registers an in-flight boundary query. The node's
	// Shutdown blocks until the returned done function has been called,
	// so no callback can fire after destroy returns.
	TrackQuery() (done func())
}

// DispatchQuery validates and submits one asynchronous RPC query.
//
// Rejections (missing callback, non-UTF-8 query) are synchronous and
// trigger no callback. An accepted query is guaranteed exactly one
// notification: the response payload, "empty response" when the node
// produced none, or "timeout" when QueryTimeout elapses first.
func DispatchQuery(client queryRunner, query string, notify NotifyFunc) error {
	if notify == nil {
		return ErrMissingCallback
	}
	if !utf8.ValidString(query) {
		return ErrInvalidUTF8
	}

	done := client.TrackQuery()
	go runQuery(client, query, notify, QueryTimeout, done)
	return nil
}

// runQuery hosts exactly one in-flight query on a dedicated OS thread.
// Queries are independent: none blocks or is blocked by another.
func runQuery(client queryRunner, query string, notify NotifyFunc, timeout time.Duration, done func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer done()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-client.RPCQuery(query):
		if resp == nil {
			notify(emptyResponseText)
		} else {
			notify(*resp)
		}
	case <-timer.C:
		// The in-flight query is not cancelled; a late completion lands
		// in the buffered result channel and is dropped with it.
		notify(timeoutText)
	}
}
