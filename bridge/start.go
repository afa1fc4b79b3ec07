package bridge

import (
	"fmt"

	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

// Start consumes a parsed configuration and boots the embedded node.
//
// Three outcomes are possible, matching node.Start:
//   - instant text (for example --version): printed here, nil client, nil error
//   - instant outcome with no text: nil client, nil error
//   - a running node: non-nil client, nil error
//
// A nil client with a nil error therefore means "done, nothing to hold on
// to"; the caller only receives a handle for a genuinely running node.
func Start(cfg *node.Config, onRestart node.RestartFunc) (*node.Client, error) {
	action, err := node.Start(cfg, onRestart, func() {})
	if err != nil {
		return nil, err
	}

	if action.Client != nil {
		return action.Client, nil
	}
	if action.Output != "" {
		fmt.Println(action.Output)
	}
	return nil, nil
}
