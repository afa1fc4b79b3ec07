//go:build jni

package main

/*
#include <stdlib.h>
#include <jni.h>

static inline jsize hierachain_jni_array_length(JNIEnv *env, jobjectArray arr) {
	return (*env)->GetArrayLength(env, arr);
}

static inline jstring hierachain_jni_array_get(JNIEnv *env, jobjectArray arr, jsize i) {
	return (jstring)(*env)->GetObjectArrayElement(env, arr, i);
}

static inline const char *hierachain_jni_string_chars(JNIEnv *env, jstring s) {
	return (*env)->GetStringUTFChars(env, s, NULL);
}

static inline jsize hierachain_jni_string_len(JNIEnv *env, jstring s) {
	return (*env)->GetStringUTFLength(env, s);
}

static inline void hierachain_jni_string_release(JNIEnv *env, jstring s, const char *chars) {
	(*env)->ReleaseStringUTFChars(env, s, chars);
}

static inline jstring hierachain_jni_new_string(JNIEnv *env, const char *chars) {
	return (*env)->NewStringUTF(env, chars);
}

static inline void hierachain_jni_throw(JNIEnv *env, const char *msg) {
	jclass cls = (*env)->FindClass(env, "java/lang/Exception");
	if (cls != NULL) {
		(*env)->ThrowNew(env, cls, msg);
	}
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/VanDung-dev/HieraChain-Bridge/bridge"
	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

// The io.hierachain.HieraChain class mirrors the C contract with handles as
// long values and failures raised as java.lang.Exception. The rpc entry
// point is synchronous on the Java side: it consumes the dispatcher's
// single callback internally and returns the payload, bounded by the same
// five minute ceiling.
//
// GetStringUTFChars yields Java's modified UTF-8, so every incoming string
// goes through bridge.DecodeJavaUTF8 before it reaches the strict UTF-8
// validation at the boundary.

func jniThrow(env *C.JNIEnv, msg string) {
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	C.hierachain_jni_throw(env, cmsg)
}

func jniString(env *C.JNIEnv, s string) C.jstring {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.hierachain_jni_new_string(env, cs)
}

//export Java_io_hierachain_HieraChain_configFromCli
func Java_io_hierachain_HieraChain_configFromCli(env *C.JNIEnv, _ C.jclass, cli C.jobjectArray) C.jlong {
	count := C.hierachain_jni_array_length(env, cli)

	raw := make([][]byte, 0, int(count))
	for i := C.jsize(0); i < count; i++ {
		elem := C.hierachain_jni_array_get(env, cli, i)
		if elem == nil {
			jniThrow(env, "null argument in CLI array")
			return 0
		}

		chars := C.hierachain_jni_string_chars(env, elem)
		if chars == nil {
			jniThrow(env, "failed to read CLI argument")
			return 0
		}
		raw = append(raw, bridge.DecodeJavaUTF8(C.GoBytes(unsafe.Pointer(chars), C.int(C.hierachain_jni_string_len(env, elem)))))
		C.hierachain_jni_string_release(env, elem, chars)
	}

	var handle C.jlong
	status := bridge.Guard(func() int {
		cfg, err := bridge.ConfigFromArgs(raw)
		if err != nil {
			return bridge.StatusFailed
		}
		handle = C.jlong(cgo.NewHandle(cfg))
		return bridge.StatusOK
	})
	if status != bridge.StatusOK {
		jniThrow(env, "failed to create config object")
		return 0
	}
	return handle
}

//export Java_io_hierachain_HieraChain_build
func Java_io_hierachain_HieraChain_build(env *C.JNIEnv, _ C.jclass, config C.jlong) C.jlong {
	var handle C.jlong
	status := bridge.Guard(func() int {
		h := cgo.Handle(uintptr(config))
		cfg := h.Value().(*node.Config)
		h.Delete()

		client, err := bridge.Start(cfg, nil)
		if err != nil {
			return bridge.StatusFailed
		}
		if client != nil {
			handle = C.jlong(cgo.NewHandle(client))
		}
		return bridge.StatusOK
	})
	if status != bridge.StatusOK {
		jniThrow(env, "failed to start HieraChain")
		return 0
	}
	return handle
}

//export Java_io_hierachain_HieraChain_destroy
func Java_io_hierachain_HieraChain_destroy(_ *C.JNIEnv, _ C.jclass, handle C.jlong) {
	hierachain_destroy(unsafe.Pointer(uintptr(handle)))
}

//export Java_io_hierachain_HieraChain_rpcQueryNative
func Java_io_hierachain_HieraChain_rpcQueryNative(env *C.JNIEnv, _ C.jclass, handle C.jlong, rpc C.jstring) C.jstring {
	chars := C.hierachain_jni_string_chars(env, rpc)
	if chars == nil {
		jniThrow(env, "failed to read query string")
		return jniString(env, "")
	}
	query := string(bridge.DecodeJavaUTF8([]byte(C.GoStringN(chars, C.int(C.hierachain_jni_string_len(env, rpc))))))
	C.hierachain_jni_string_release(env, rpc, chars)

	results := make(chan string, 1)
	status := bridge.Guard(func() int {
		client := cgo.Handle(uintptr(handle)).Value().(*node.Client)
		err := bridge.DispatchQuery(client, query, func(text string) {
			results <- text
		})
		if err != nil {
			return bridge.StatusFailed
		}
		return bridge.StatusOK
	})
	if status != bridge.StatusOK {
		jniThrow(env, "failed to perform RPC query")
		return jniString(env, "")
	}

	// The dispatcher guarantees exactly one delivery within its ceiling.
	return jniString(env, <-results)
}
