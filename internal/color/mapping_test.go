package color

import (
	"errors"
	"testing"
)

func TestMapScenarios(t *testing.T) {
	tests := []struct {
		name      string
		f, lo, hi int64
		want      uint8
	}{
		{"midpoint rounds up", 500, 0, 1000, 128},
		{"low bound", 0, 0, 1000, 0},
		{"high bound", 1000, 0, 1000, 255},
		{"offset low", 100, 100, 600, 0},
		{"offset high", 600, 100, 600, 255},
		{"below low clamps", 50, 100, 600, 0},
		{"above high clamps", 5000, 0, 1000, 255},
		{"inverted bounds", 250, 1000, 0, 191},
		{"small span", 1, 0, 2, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Map(tt.f, tt.lo, tt.hi)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Map(%d, %d, %d) = %d, want %d", tt.f, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestMapUncalibrated(t *testing.T) {
	_, err := Map(100, 100, 100)
	if !errors.Is(err, ErrUncalibrated) {
		t.Errorf("expected ErrUncalibrated, got %v", err)
	}

	_, err = MapLegacy(100, 100, 100)
	if !errors.Is(err, ErrUncalibrated) {
		t.Errorf("legacy: expected ErrUncalibrated, got %v", err)
	}
}

func TestMapMonotonicAndBounded(t *testing.T) {
	bounds := []Bounds{
		{Low: 0, High: 1000},
		{Low: 37, High: 412},
		{Low: 5, High: 6},
		{Low: 0, High: 100000},
	}

	for _, b := range bounds {
		prev := uint8(0)
		for f := b.Low; f <= b.High; f++ {
			got, err := Map(f, b.Low, b.High)
			if err != nil {
				t.Fatalf("Map(%d, %d, %d): %v", f, b.Low, b.High, err)
			}
			if got < prev {
				t.Fatalf("not monotonic on %+v: f=%d gave %d after %d", b, f, got, prev)
			}
			prev = got
		}
		if prev != MaxIntensity {
			t.Errorf("%+v: high bound mapped to %d, want 255", b, prev)
		}
	}
}

func TestMapLegacy(t *testing.T) {
	tests := []struct {
		f, lo, hi int64
		want      uint8
	}{
		{500, 0, 1000, 127},
		{1000, 0, 1000, 255},
		{0, 0, 1000, 0},
		// 2000*255/1000 = 510, wraps to 254
		{2000, 0, 1000, 254},
		// -100*255/1000 = -25, wraps to 231
		{0, 100, 1100, 231},
	}

	for _, tt := range tests {
		got, err := MapLegacy(tt.f, tt.lo, tt.hi)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("MapLegacy(%d, %d, %d) = %d, want %d", tt.f, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestModeMap(t *testing.T) {
	got, _ := Clamped.Map(500, 0, 1000)
	if got != 128 {
		t.Errorf("Clamped: got %d, want 128", got)
	}
	got, _ = Legacy.Map(500, 0, 1000)
	if got != 127 {
		t.Errorf("Legacy: got %d, want 127", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": Clamped, "clamped": Clamped, "LEGACY": Legacy} {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseMode("log"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestHex(t *testing.T) {
	if got := Hex([3]uint8{255, 128, 0}); got != "#ff8000" {
		t.Errorf("Hex: got %q, want #ff8000", got)
	}
}
