package capture

import "testing"

func TestNewScreenSource_NegativeDisplay(t *testing.T) {
	if _, err := NewScreenSource(-1); err == nil {
		t.Error("NewScreenSource(-1) error = nil, want error")
	}
}
