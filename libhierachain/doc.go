//go:build cgo

// Package main builds libhierachain, the HieraChain node embedded as a C
// shared library.
//
// Build with:
//
//	go build -buildmode=c-shared -o libhierachain.so ./libhierachain
//
// The generated libhierachain.h declares every exported entry point. The
// JNI adapter is compiled in with the "jni" build tag and needs the JDK
// headers on the include path:
//
//	CGO_CFLAGS="-I$JAVA_HOME/include -I$JAVA_HOME/include/linux" \
//	go build -tags jni -buildmode=c-shared -o libhierachain.so ./libhierachain
//
// Handles returned through output slots are opaque. Each one must be
// destroyed exactly once; a configuration handle passed to hierachain_start
// is consumed there and must not be destroyed afterwards. Callback context
// pointers and the memory they reference must stay valid until the last
// possible callback invocation; the library never frees them.
package main
