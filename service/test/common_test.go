package service_test

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/go-delve/elfdb/service/api"
)

func assertNoError(err error, t *testing.T, s string) {
	t.Helper()
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fname := filepath.Base(file)
		t.Fatalf("failed assertion at %s:%d: %s - %s\n", fname, line, s, err)
	}
}

func assertError(err error, t *testing.T, s string) {
	t.Helper()
	if err == nil {
		_, file, line, _ := runtime.Caller(1)
		fname := filepath.Base(file)
		t.Fatalf("failed assertion at %s:%d: %s (no error)\n", fname, line, s)
	}
}

func assertErrorContains(err error, t *testing.T, substr, s string) {
	t.Helper()
	assertError(err, t, s)
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("%s: expected error containing %q, got %q", s, substr, err)
	}
}

func registerValue(t *testing.T, state *api.DebuggerState, name string) int64 {
	t.Helper()
	for _, r := range state.Registers {
		if r.Name == name {
			return r.Value
		}
	}
	t.Fatalf("register %s not in state", name)
	return 0
}

func breakpointIDs(bps []*api.Breakpoint) []int {
	r := make([]int, len(bps))
	for i := range bps {
		r[i] = bps[i].ID
	}
	return r
}
