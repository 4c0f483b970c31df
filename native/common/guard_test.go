package common

import (
	"errors"
	"strings"
	"testing"
)

type stubPauses map[string]bool

func (s stubPauses) IsPaused(module string) bool { return s[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "market"); err != nil {
		t.Fatalf("nil view must pass: %v", err)
	}
	if err := Guard(stubPauses{"market": true}, ""); err != nil {
		t.Fatalf("empty module must pass: %v", err)
	}
	if err := Guard(stubPauses{"market": false}, "market"); err != nil {
		t.Fatalf("unhalted module must pass: %v", err)
	}

	err := Guard(stubPauses{"market": true}, "market")
	if !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if !strings.Contains(err.Error(), "market") {
		t.Fatalf("error must name the halted module: %v", err)
	}
}
