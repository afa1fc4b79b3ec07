package main

/*
#include <stdlib.h>
#include <stddef.h>

// hierachain_string_cb receives (context, buffer, length). The buffer is
// only valid for the duration of the call; the callee must copy what it
// wants to keep.
typedef void (*hierachain_string_cb)(void *ud, const char *buf, size_t len);

// Parameters for hierachain_start. The configuration pointer must come from
// hierachain_config_from_cli and is consumed by the call.
typedef struct hierachain_params {
	void *configuration;
	hierachain_string_cb on_client_restart_cb;
	void *on_client_restart_cb_custom;
} hierachain_params;

static inline void hierachain_invoke_cb(hierachain_string_cb cb, void *ud, const char *buf, size_t len) {
	cb(ud, buf, len);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/VanDung-dev/HieraChain-Bridge/bridge"
	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

func main() {}

// callbackStr marshals one string to a foreign callback. Safe to copy
// across goroutines: it is immutable data plus raw pointers whose validity
// the caller guarantees.
type callbackStr struct {
	fn C.hierachain_string_cb
	ud unsafe.Pointer
}

// call invokes the callback with (context, bytes, length). A nil function
// pointer drops the notification.
func (cb callbackStr) call(text string) {
	if cb.fn == nil {
		return
	}
	buf := C.CString(text)
	defer C.free(unsafe.Pointer(buf))
	C.hierachain_invoke_cb(cb.fn, cb.ud, buf, C.size_t(len(text)))
}

// hierachain_config_from_cli parses command-line style arguments into a
// configuration handle. args and args_lens each hold len entries; every
// argument must be valid UTF-8. On success *output receives the handle and
// the return value is 0; on failure *output stays NULL and 1 is returned.
//
//export hierachain_config_from_cli
func hierachain_config_from_cli(args **C.char, argsLens *C.size_t, argsLen C.size_t, output *unsafe.Pointer) C.int {
	if output == nil {
		return C.int(bridge.StatusFailed)
	}
	*output = nil

	return C.int(bridge.Guard(func() int {
		raw := make([][]byte, 0, int(argsLen))
		if argsLen > 0 {
			ptrs := unsafe.Slice(args, int(argsLen))
			lens := unsafe.Slice(argsLens, int(argsLen))
			for i := range ptrs {
				raw = append(raw, C.GoBytes(unsafe.Pointer(ptrs[i]), C.int(lens[i])))
			}
		}

		cfg, err := bridge.ConfigFromArgs(raw)
		if err != nil {
			return bridge.StatusFailed
		}

		*output = unsafe.Pointer(cgo.NewHandle(cfg))
		return bridge.StatusOK
	}))
}

// hierachain_config_destroy reclaims an unconsumed configuration handle.
// Must not be called on a handle already passed to hierachain_start.
//
//export hierachain_config_destroy
func hierachain_config_destroy(cfg unsafe.Pointer) {
	bridge.Protect(func() {
		cgo.Handle(uintptr(cfg)).Delete()
	})
}

// hierachain_start consumes the configuration in params and starts the
// embedded node. Instant outcomes (such as --version) print their text and
// succeed with *output left NULL; a genuinely running node writes its
// handle into *output. Returns 0 on success, 1 on failure.
//
//export hierachain_start
func hierachain_start(params *C.hierachain_params, output *unsafe.Pointer) C.int {
	if params == nil || output == nil {
		return C.int(bridge.StatusFailed)
	}
	*output = nil

	restart := callbackStr{fn: params.on_client_restart_cb, ud: params.on_client_restart_cb_custom}

	return C.int(bridge.Guard(func() int {
		h := cgo.Handle(uintptr(params.configuration))
		cfg := h.Value().(*node.Config)
		// Ownership of the configuration transfers here.
		h.Delete()

		client, err := bridge.Start(cfg, func(newChain string) {
			restart.call(newChain)
		})
		if err != nil {
			return bridge.StatusFailed
		}
		if client != nil {
			*output = unsafe.Pointer(cgo.NewHandle(client))
		}
		return bridge.StatusOK
	}))
}

// hierachain_destroy shuts the node down and reclaims its handle. Blocks
// until all internal background work has quiesced; no callback fires after
// this returns for queries issued before the call.
//
//export hierachain_destroy
func hierachain_destroy(client unsafe.Pointer) {
	bridge.Protect(func() {
		h := cgo.Handle(uintptr(client))
		c := h.Value().(*node.Client)
		h.Delete()
		c.Shutdown()
	})
}

// hierachain_rpc submits one asynchronous JSON-RPC query. Returns 0 when
// the query was accepted, in which case callback is invoked exactly once
// with a NULL context: the response payload, "empty response", or "timeout"
// after five minutes. Returns 1 on synchronous rejection (missing callback,
// non-UTF-8 query), in which case the callback never fires.
//
//export hierachain_rpc
func hierachain_rpc(client unsafe.Pointer, query *C.char, queryLen C.size_t, callback C.hierachain_string_cb) C.int {
	return C.int(bridge.Guard(func() int {
		if callback == nil {
			return bridge.StatusFailed
		}

		c := cgo.Handle(uintptr(client)).Value().(*node.Client)
		raw := C.GoBytes(unsafe.Pointer(query), C.int(queryLen))

		// Query results carry a NULL context pointer.
		cb := callbackStr{fn: callback}
		if err := bridge.DispatchQuery(c, string(raw), cb.call); err != nil {
			return bridge.StatusFailed
		}
		return bridge.StatusOK
	}))
}

// hierachain_set_panic_hook installs a process-wide hook receiving the
// message of any panic caught at the boundary. A later call replaces the
// hook; it stays active until process exit.
//
//export hierachain_set_panic_hook
func hierachain_set_panic_hook(callback C.hierachain_string_cb, ud unsafe.Pointer) {
	cb := callbackStr{fn: callback, ud: ud}
	bridge.SetPanicHook(cb.call)
}
