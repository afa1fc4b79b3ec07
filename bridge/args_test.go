package bridge

import (
	"errors"
	"testing"

	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

func rawArgs(args ...string) [][]byte {
	raw := make([][]byte, 0, len(args))
	for _, a := range args {
		raw = append(raw, []byte(a))
	}
	return raw
}

func TestDecodeArgsPrependsProgramName(t *testing.T) {
	args, err := DecodeArgs(rawArgs("--light", "--chain", "testnet"))
	if err != nil {
		t.Fatalf("DecodeArgs failed: %v", err)
	}

	want := []string{"hierachain", "--light", "--chain", "testnet"}
	if len(args) != len(want) {
		t.Fatalf("Expected %d args, got %d", len(want), len(args))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("Arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}

func TestDecodeArgsEmpty(t *testing.T) {
	args, err := DecodeArgs(nil)
	if err != nil {
		t.Fatalf("DecodeArgs failed: %v", err)
	}
	if len(args) != 1 || args[0] != "hierachain" {
		t.Errorf("Expected only the program name, got %v", args)
	}
}

func TestDecodeArgsRejectsInvalidUTF8(t *testing.T) {
	raw := [][]byte{[]byte("--light"), {0xff, 0xfe, 0x01}}
	_, err := DecodeArgs(raw)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestConfigFromArgs(t *testing.T) {
	cfg, err := ConfigFromArgs(rawArgs("--light", "--chain", "testnet"))
	if err != nil {
		t.Fatalf("ConfigFromArgs failed: %v", err)
	}
	if !cfg.Light {
		t.Error("Expected light mode")
	}
	if cfg.Chain != "testnet" {
		t.Errorf("Expected chain testnet, got %q", cfg.Chain)
	}
}

func TestConfigFromArgsForcesAutoUpdateOff(t *testing.T) {
	cfg, err := ConfigFromArgs(rawArgs("--auto-update", "stable"))
	if err != nil {
		t.Fatalf("ConfigFromArgs failed: %v", err)
	}
	if cfg.AutoUpdate != node.AutoUpdateNone {
		t.Errorf("Expected auto-update forced to none, got %q", cfg.AutoUpdate)
	}
}

func TestConfigFromArgsRejectsUnknownFlag(t *testing.T) {
	if _, err := ConfigFromArgs(rawArgs("--definitely-not-a-flag")); err == nil {
		t.Error("Expected an error for an unknown flag")
	}
}

func TestConfigFromArgsRejectsInvalidUTF8(t *testing.T) {
	_, err := ConfigFromArgs([][]byte{{0x80}})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestStartInstantVersion(t *testing.T) {
	cfg, err := ConfigFromArgs(rawArgs("--version"))
	if err != nil {
		t.Fatalf("ConfigFromArgs failed: %v", err)
	}

	client, err := Start(cfg, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if client != nil {
		client.Shutdown()
		t.Fatal("Expected no client for an instant outcome")
	}
}

func TestStartRunningClient(t *testing.T) {
	cfg, err := ConfigFromArgs(rawArgs("--no-network", "--chain", "testnet"))
	if err != nil {
		t.Fatalf("ConfigFromArgs failed: %v", err)
	}

	client, err := Start(cfg, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if client == nil {
		t.Fatal("Expected a running client")
	}
	client.Shutdown()
}
