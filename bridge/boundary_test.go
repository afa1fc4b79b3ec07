package bridge

import (
	"errors"
	"testing"
)

func TestGuardPassesStatusThrough(t *testing.T) {
	if got := Guard(func() int { return StatusOK }); got != StatusOK {
		t.Errorf("Expected StatusOK, got %d", got)
	}
	if got := Guard(func() int { return StatusFailed }); got != StatusFailed {
		t.Errorf("Expected StatusFailed, got %d", got)
	}
}

func TestGuardConvertsPanic(t *testing.T) {
	got := Guard(func() int {
		panic("boom")
	})
	if got != StatusFailed {
		t.Errorf("Expected StatusFailed after panic, got %d", got)
	}
}

func TestGuardReportsPanicToHook(t *testing.T) {
	defer SetPanicHook(nil)

	var messages []string
	SetPanicHook(func(msg string) {
		messages = append(messages, msg)
	})

	Guard(func() int { panic("string panic") })
	Guard(func() int { panic(errors.New("error panic")) })
	Guard(func() int { panic(42) })

	want := []string{"string panic", "error panic", "42"}
	if len(messages) != len(want) {
		t.Fatalf("Expected %d hook invocations, got %d", len(want), len(messages))
	}
	for i, msg := range want {
		if messages[i] != msg {
			t.Errorf("Hook message %d: expected %q, got %q", i, msg, messages[i])
		}
	}
}

func TestGuardNoHookInvocationWithoutPanic(t *testing.T) {
	defer SetPanicHook(nil)

	invoked := false
	SetPanicHook(func(string) { invoked = true })

	Guard(func() int { return StatusOK })
	if invoked {
		t.Error("Hook invoked without a panic")
	}
}

func TestProtectSwallowsPanic(t *testing.T) {
	defer SetPanicHook(nil)

	var got string
	SetPanicHook(func(msg string) { got = msg })

	Protect(func() { panic("destroy fault") })
	if got != "destroy fault" {
		t.Errorf("Expected hook message %q, got %q", "destroy fault", got)
	}
}

func TestSetPanicHookReplace(t *testing.T) {
	defer SetPanicHook(nil)

	var first, second int
	SetPanicHook(func(string) { first++ })
	SetPanicHook(func(string) { second++ })

	Guard(func() int { panic("x") })

	if first != 0 {
		t.Errorf("Replaced hook invoked %d times", first)
	}
	if second != 1 {
		t.Errorf("Expected active hook invoked once, got %d", second)
	}
}
