package canopy

import "testing"

func TestCachedStartsInvalid(t *testing.T) {
	var c Cached[int]
	if c.IsValid() {
		t.Error("new Cached should be invalid")
	}
}

func TestCachedSetAndValue(t *testing.T) {
	var c Cached[int]
	c.Set(42)
	if !c.IsValid() {
		t.Error("Set should mark the cell valid")
	}
	if got := c.Value(); got != 42 {
		t.Errorf("Value = %d, want 42", got)
	}
}

func TestCachedValuePanicsWhenInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic reading invalid Cached")
		}
	}()
	var c Cached[string]
	_ = c.Value()
}

func TestCachedInvalidateReportsChange(t *testing.T) {
	var c Cached[int]
	c.Set(1)
	if !c.Invalidate() {
		t.Error("first Invalidate should report a change")
	}
	if c.Invalidate() {
		t.Error("second Invalidate should be a no-op")
	}
	if c.IsValid() {
		t.Error("cell should be invalid after Invalidate")
	}
}

func TestCachedGetOrCompute(t *testing.T) {
	var c Cached[int]
	calls := 0
	compute := func() int {
		calls++
		return 7
	}

	if got := c.GetOrCompute(compute); got != 7 {
		t.Errorf("GetOrCompute = %d, want 7", got)
	}
	if got := c.GetOrCompute(compute); got != 7 {
		t.Errorf("GetOrCompute = %d, want 7", got)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1 (memoized)", calls)
	}

	c.Invalidate()
	c.GetOrCompute(compute)
	if calls != 2 {
		t.Errorf("compute ran %d times after invalidation, want 2", calls)
	}
}
