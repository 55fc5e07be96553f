package ipam

import (
	"math"
	"testing"
)

func TestUtilization(t *testing.T) {
	block := mustCIDR(t, "192.168.1.0/24")

	t.Run("empty block is zero", func(t *testing.T) {
		if got := Utilization(0, block); got != 0.0 {
			t.Fatalf("Utilization(0) = %v, want 0", got)
		}
	})

	t.Run("full block is one hundred", func(t *testing.T) {
		if got := Utilization(254, block); got != 100.0 {
			t.Fatalf("Utilization(254) = %v, want 100", got)
		}
	})

	t.Run("two of 254 hosts", func(t *testing.T) {
		want := 2.0 / 254.0 * 100.0
		if got := Utilization(2, block); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Utilization(2) = %v, want %v", got, want)
		}
	})

	t.Run("not clamped past one hundred", func(t *testing.T) {
		small := mustCIDR(t, "10.0.0.0/30")
		if got := Utilization(3, small); math.Abs(got-150.0) > 1e-9 {
			t.Fatalf("Utilization(3) on /30 = %v, want 150", got)
		}
	})
}

func TestUtilizationShortPrefixes(t *testing.T) {
	t.Run("point to point counts both addresses", func(t *testing.T) {
		b := mustCIDR(t, "10.0.0.4/31")
		if got := Utilization(1, b); got != 50.0 {
			t.Fatalf("Utilization(1) on /31 = %v, want 50", got)
		}
		if got := Utilization(2, b); got != 100.0 {
			t.Fatalf("Utilization(2) on /31 = %v, want 100", got)
		}
	})

	t.Run("single host", func(t *testing.T) {
		b := mustCIDR(t, "10.0.0.9/32")
		if got := Utilization(0, b); got != 0.0 {
			t.Fatalf("Utilization(0) on /32 = %v, want 0", got)
		}
		if got := Utilization(1, b); got != 100.0 {
			t.Fatalf("Utilization(1) on /32 = %v, want 100", got)
		}
	})
}

func TestUtilizationDegenerateBlock(t *testing.T) {
	// A block that reports no usable hosts must still distinguish
	// "something allocated" from "nothing allocated" without dividing
	// by zero.
	broken := Block{Prefix: 40}

	if got := Utilization(0, broken); got != 0.0 {
		t.Fatalf("Utilization(0) on degenerate block = %v, want 0", got)
	}
	if got := Utilization(3, broken); got != 100.0 {
		t.Fatalf("Utilization(3) on degenerate block = %v, want 100", got)
	}
}
