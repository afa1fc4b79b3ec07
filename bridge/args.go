package bridge

import (
	"errors"
	"unicode/utf8"

	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

// programName is the synthetic argv[0] prepended before parsing. Foreign
// callers pass only the option arguments.
const programName = "hierachain"

// ErrInvalidUTF8 is returned when a boundary byte string does not decode as
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("argument is not valid UTF-8")

// DecodeArgs validates each raw boundary argument as UTF-8 and prepends the
// synthetic program name. A single invalid argument fails the whole call.
func DecodeArgs(raw [][]byte) ([]string, error) {
	args := make([]string, 0, len(raw)+1)
	args = append(args, programName)

	for _, b := range raw {
		if !utf8.Valid(b) {
			return nil, ErrInvalidUTF8
		}
		args = append(args, string(b))
	}

	return args, nil
}

// ConfigFromArgs decodes raw boundary arguments and parses them into a node
// configuration. Auto-update is always forced off for embedded nodes,
// overriding any --auto-update flag.
func ConfigFromArgs(raw [][]byte) (*node.Config, error) {
	args, err := DecodeArgs(raw)
	if err != nil {
		return nil, err
	}

	cfg, err := node.ParseCLI(args)
	if err != nil {
		return nil, err
	}

	cfg.AutoUpdate = node.AutoUpdateNone
	return cfg, nil
}
