package analyzer

import (
	"image/color"
	"testing"
)

func TestNewMask_StrictlyGreater(t *testing.T) {
	grid := &IntensityGrid{Width: 3, Height: 1, Samples: []float64{9, 10, 11}}

	mask := NewMask(grid, 10)
	want := []uint8{0, 0, 1}
	for i, b := range mask.Bits {
		if b != want[i] {
			t.Errorf("bit %d: got %d, want %d", i, b, want[i])
		}
	}
}

func TestMask_Count(t *testing.T) {
	mask := Mask{Width: 2, Height: 2, Bits: []uint8{1, 0, 1, 1}}
	if mask.Count() != 3 {
		t.Errorf("Count: got %d, want 3", mask.Count())
	}
	if mask.At(1, 1) != 1 || mask.At(1, 0) != 0 {
		t.Error("At returned wrong values")
	}
}

func TestSuspiciousPercentage(t *testing.T) {
	tests := []struct {
		name string
		mask Mask
		want float64
	}{
		{"empty mask", Mask{}, 0},
		{"no flagged", Mask{Width: 2, Height: 2, Bits: []uint8{0, 0, 0, 0}}, 0},
		{"quarter", Mask{Width: 2, Height: 2, Bits: []uint8{1, 0, 0, 0}}, 25},
		{"all flagged", Mask{Width: 2, Height: 1, Bits: []uint8{1, 1}}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuspiciousPercentage(tt.mask)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("percentage out of range: %v", got)
			}
		})
	}
}

func TestMask_Preview(t *testing.T) {
	mask := Mask{Width: 2, Height: 1, Bits: []uint8{0, 1}}
	img := mask.Preview()

	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatalf("preview size: got %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("unflagged: got %v, want black", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("flagged: got %v, want white", got)
	}
}
