package histogram

import (
	"errors"
	"testing"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// solidRows returns an image whose rows alternate between the given colours.
func solidRows(width int, rows []colour.RGB, channels int) raster.Image {
	pix := make([]byte, 0, width*len(rows)*channels)
	for _, c := range rows {
		for x := 0; x < width; x++ {
			pix = append(pix, c.R, c.G, c.B)
			if channels == 4 {
				pix = append(pix, byte(x))
			}
		}
	}
	return raster.Image{Pix: pix, Width: width, Height: len(rows), Channels: channels}
}

var (
	red   = colour.RGB{R: 255}
	green = colour.RGB{G: 255}
	blue  = colour.RGB{B: 255}
)

func TestBuild(t *testing.T) {
	for _, channels := range []int{3, 4} {
		img := solidRows(5, []colour.RGB{red, red, green, blue, red}, channels)
		for _, kind := range colour.Kinds() {
			s := kind.Space()
			h := Build(img, s)

			if h.Len() != 3 {
				t.Errorf("%s/%d: Expected 3 unique colours, got %d", kind, channels, h.Len())
			}
			if h.Total() != 25 {
				t.Errorf("%s/%d: Expected total 25, got %d", kind, channels, h.Total())
			}
			if n, ok := h.Count(s.FromRGB(red)); !ok || n != 15 {
				t.Errorf("%s/%d: red count = %d, %v; want 15", kind, channels, n, ok)
			}
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	h := Build(raster.Image{Channels: 3}, colour.OKLab())
	if h.Len() != 0 || h.Total() != 0 {
		t.Errorf("Expected empty histogram, got %d entries", h.Len())
	}
	if len(h.Sorted()) != 0 {
		t.Error("Expected no sorted entries")
	}
}

func TestSorted(t *testing.T) {
	s := colour.RGBSpace()
	img := solidRows(2, []colour.RGB{blue, green, red, red, green, red}, 3)
	got := Build(img, s).Sorted()

	want := []Entry{
		{Color: s.FromRGB(red), Count: 6},
		{Color: s.FromRGB(green), Count: 4},
		{Color: s.FromRGB(blue), Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSortedTieBreak(t *testing.T) {
	entries := []Entry{{Color: 9, Count: 1}, {Color: 3, Count: 1}, {Color: 5, Count: 2}}
	SortEntries(entries)
	if entries[0].Color != 5 || entries[1].Color != 3 || entries[2].Color != 9 {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestBuildMasked(t *testing.T) {
	s := colour.RGBSpace()
	img := solidRows(4, []colour.RGB{red, green}, 3)
	h := BuildMasked(img, s, func(x, y int) bool { return x == 0 })
	if h.Total() != 2 {
		t.Errorf("Expected 2 counted pixels, got %d", h.Total())
	}
}

func TestBuildWeighted(t *testing.T) {
	s := colour.RGBSpace()
	img := solidRows(2, []colour.RGB{red, blue}, 3)

	t.Run("zero weight matches plain build", func(t *testing.T) {
		h, err := BuildWeighted(img, s, []byte{255, 255, 0, 0}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if n, _ := h.Count(s.FromRGB(red)); n != 2 {
			t.Errorf("Expected red count 2, got %d", n)
		}
	})

	t.Run("salient colour gains mass", func(t *testing.T) {
		// Red pixels carry saliency 10, blue none: red = 2 + 2*10*1 = 22,
		// blue = 2, added = 20, rescaled by 4/24.
		h, err := BuildWeighted(img, s, []byte{10, 10, 0, 0}, 1)
		if err != nil {
			t.Fatal(err)
		}
		r, _ := h.Count(s.FromRGB(red))
		b, ok := h.Count(s.FromRGB(blue))
		if r != 4 {
			t.Errorf("Expected red count 4, got %d", r)
		}
		if ok || b != 0 {
			t.Errorf("Expected blue to round away, got %d", b)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		if _, err := BuildWeighted(img, s, []byte{1}, 2); err == nil {
			t.Error("Expected error for short weight buffer")
		}
	})
}

func TestPackUnpack(t *testing.T) {
	entries := []Entry{{Color: 0xffffff, Count: 90000}, {Color: 0, Count: 1}}
	packed := Pack(entries)
	if len(packed) != 4 || packed[0] != 0xffffff || packed[1] != 90000 {
		t.Fatalf("unexpected packed form %v", packed)
	}
	got, err := Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != entries[0] || got[1] != entries[1] {
		t.Errorf("Unpack = %+v, want %+v", got, entries)
	}
	if _, err := Unpack([]uint32{1, 2, 3}); !errors.Is(err, ErrMalformedTransfer) {
		t.Errorf("Expected ErrMalformedTransfer, got %v", err)
	}
}

func TestFromEntries(t *testing.T) {
	h := FromEntries([]Entry{{Color: 1, Count: 2}, {Color: 1, Count: 3}, {Color: 2, Count: 1}})
	if n, _ := h.Count(1); n != 5 {
		t.Errorf("Expected summed count 5, got %d", n)
	}
	if h.Total() != 6 || Total(h.Sorted()) != 6 {
		t.Errorf("Expected total 6, got %d", h.Total())
	}
}
