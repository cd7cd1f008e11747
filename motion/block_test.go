package motion

import "testing"

func TestIsZeroMotionTrueWhenNoMillimeters(t *testing.T) {
	b := &Block{Steps: []uint32{5, 5}, Millimeters: 0}
	if !b.IsZeroMotion() {
		t.Errorf("expected zero motion when Millimeters is 0, even with nonzero steps")
	}
}

func TestIsZeroMotionTrueWhenAllStepsZero(t *testing.T) {
	b := &Block{Steps: []uint32{0, 0, 0}, Millimeters: 10}
	if !b.IsZeroMotion() {
		t.Errorf("expected zero motion when every axis has zero steps")
	}
}

func TestIsZeroMotionFalse(t *testing.T) {
	b := &Block{Steps: []uint32{0, 7, 0}, Millimeters: 10}
	if b.IsZeroMotion() {
		t.Errorf("expected non-zero motion when any axis has steps")
	}
}

func TestTakeReleaseRefcount(t *testing.T) {
	b := &Block{}
	if b.Refcount() != 0 {
		t.Fatalf("new block should start at refcount 0")
	}
	b.Take()
	b.Take()
	if b.Refcount() != 2 {
		t.Fatalf("Refcount() = %d, want 2", b.Refcount())
	}
	b.Release()
	if b.Refcount() != 1 {
		t.Fatalf("Refcount() = %d, want 1", b.Refcount())
	}
	b.Release()
	b.Release() // one extra release past zero must be a no-op
	if b.Refcount() != 0 {
		t.Fatalf("Refcount() = %d, want 0 (must not go negative)", b.Refcount())
	}
}
