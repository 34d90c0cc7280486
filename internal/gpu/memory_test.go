//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/elviz"
)

// TestTargetBytes checks the estimate for a small multisampled target.
func TestTargetBytes(t *testing.T) {
	// 16x8 at 4 samples: 3 layers of 8 bytes, two depth buffers of 4 bytes,
	// a 16 byte output texel and one 256 byte staging row per line.
	const want = 16*8*4*8*3 + 2*16*8*4*4 + 16*8*16 + 256*8
	if got := targetBytes(16, 8, 4, 3); got != want {
		t.Errorf("targetBytes = %d, want %d", got, want)
	}
}

func TestMemoryBudget(t *testing.T) {
	m := newMemoryBudget(0)
	if m.budgetBytes != DefaultMaxMemoryMB<<20 {
		t.Fatalf("budget = %d, want default", m.budgetBytes)
	}
	if err := m.reserve(100 << 20); err != nil {
		t.Fatal(err)
	}
	if err := m.reserve(500 << 20); !errors.Is(err, ErrMemoryBudgetExceeded) {
		t.Errorf("reserve over budget = %v, want ErrMemoryBudgetExceeded", err)
	}
	s := m.stats()
	if s.UsedBytes != 100<<20 || s.TargetCount != 1 {
		t.Errorf("stats = %+v", s)
	}
	if !strings.Contains(s.String(), "100/512 MB") {
		t.Errorf("String() = %q", s.String())
	}
	m.release(100 << 20)
	m.release(0)
	if s := m.stats(); s.UsedBytes != 0 || s.TargetCount != 0 {
		t.Errorf("after release stats = %+v", s)
	}
}

func TestNewTargetChargesBudget(t *testing.T) {
	d := createNoopDevice(t)
	cfg := elviz.TargetConfig{Width: 16, Height: 8, Samples: 4, Passes: 3}
	tg, err := d.NewTarget(cfg)
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	if s := d.MemoryStats(); s.UsedBytes != targetBytes(16, 8, 4, 3) || s.TargetCount != 1 {
		t.Errorf("stats after NewTarget = %+v", s)
	}
	tg.Destroy()
	tg.Destroy()
	if s := d.MemoryStats(); s.UsedBytes != 0 || s.TargetCount != 0 {
		t.Errorf("stats after Destroy = %+v", s)
	}

	d.SetMemoryBudget(1)
	big := elviz.TargetConfig{Width: 2048, Height: 2048, Samples: 4, Passes: 4}
	_, err = d.NewTarget(big)
	if !errors.Is(err, elviz.ErrTargetAllocation) || !errors.Is(err, ErrMemoryBudgetExceeded) {
		t.Errorf("NewTarget over budget = %v", err)
	}
}
