// Package node implements the embedded HieraChain client runtime: CLI
// configuration, the running client lifecycle, the JSON-RPC method table,
// the mempool, block production and the validation worker pool.
package node
