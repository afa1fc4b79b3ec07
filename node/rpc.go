package node

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JSON-RPC 2.0 error codes used by the method table.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// RPCQuery submits one JSON-RPC query. The returned channel is buffered and
// eventually carries exactly one value: the serialized response, or nil when
// the request was a notification and produced no response. A late read
// never blocks the node.
func (c *Client) RPCQuery(query string) <-chan *string {
	out := make(chan *string, 1)

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		out <- marshalResponse(nil, nil, &rpcError{Code: codeInternalError, Message: "node is shut down"})
		return out
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		out <- c.serveQuery(query)
	}()
	return out
}

func (c *Client) serveQuery(query string) *string {
	var req rpcRequest
	if err := json.Unmarshal([]byte(query), &req); err != nil {
		c.metrics.RecordQuery(true)
		return marshalResponse(nil, nil, &rpcError{Code: codeParseError, Message: "parse error"})
	}
	if req.Method == "" {
		c.metrics.RecordQuery(true)
		return marshalResponse(req.ID, nil, &rpcError{Code: codeInvalidRequest, Message: "missing method"})
	}

	result, rpcErr := c.callMethod(&req)
	c.metrics.RecordQuery(rpcErr != nil)

	// A request without an id is a notification: execute, respond nothing.
	if req.ID == nil {
		return nil
	}
	return marshalResponse(req.ID, result, rpcErr)
}

func (c *Client) callMethod(req *rpcRequest) (interface{}, *rpcError) {
	switch req.Method {
	case "hiera_blockNumber", "eth_blockNumber":
		return fmt.Sprintf("0x%x", c.getChain().Height()), nil

	case "hiera_getBlockByNumber":
		number, err := blockNumberParam(req.Params)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		block := c.getChain().BlockByNumber(number)
		if block == nil {
			return nil, nil
		}
		return block, nil

	case "hiera_sendTransaction":
		if len(req.Params) != 1 {
			return nil, &rpcError{Code: codeInvalidParams, Message: "expected one transaction object"}
		}
		var tx Transaction
		if err := json.Unmarshal(req.Params[0], &tx); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "malformed transaction"}
		}
		if err := c.mempool.Add(&tx); err != nil {
			return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
		}
		c.metrics.MempoolSize.Set(float64(c.mempool.Size()))
		return tx.ID, nil

	case "hiera_mempoolStatus":
		return c.mempool.Stats(), nil

	case "hiera_peerCount":
		return fmt.Sprintf("0x%x", c.peerCount()), nil

	case "hiera_chainName":
		return c.getChain().Name(), nil

	case "hiera_version":
		return Version, nil

	case "admin_switchChain":
		name, err := stringParam(req.Params)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		c.switchChain(name)
		return name, nil

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func marshalResponse(id json.RawMessage, result interface{}, rpcErr *rpcError) *string {
	if id == nil {
		id = json.RawMessage("null")
	}
	resp := rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
		Error:   rpcErr,
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		fallback := fmt.Sprintf(`{"jsonrpc":"2.0","id":null,"error":{"code":%d,"message":"internal error"}}`, codeInternalError)
		return &fallback
	}
	s := string(raw)
	return &s
}

// blockNumberParam accepts a hex-quantity string or a JSON number.
func blockNumberParam(params []json.RawMessage) (int64, error) {
	if len(params) != 1 {
		return 0, fmt.Errorf("expected one block number parameter")
	}

	var asString string
	if err := json.Unmarshal(params[0], &asString); err == nil {
		if strings.HasPrefix(asString, "0x") {
			n, err := strconv.ParseInt(asString[2:], 16, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed hex quantity %q", asString)
			}
			return n, nil
		}
		n, err := strconv.ParseInt(asString, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed block number %q", asString)
		}
		return n, nil
	}

	var asNumber int64
	if err := json.Unmarshal(params[0], &asNumber); err != nil {
		return 0, fmt.Errorf("malformed block number parameter")
	}
	return asNumber, nil
}

func stringParam(params []json.RawMessage) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("expected one string parameter")
	}
	var s string
	if err := json.Unmarshal(params[0], &s); err != nil || s == "" {
		return "", fmt.Errorf("expected a non-empty string parameter")
	}
	return s, nil
}
