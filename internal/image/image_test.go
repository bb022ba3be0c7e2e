package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/coverhue/internal/raster"
	httputil "github.com/jmylchreest/coverhue/internal/util/http"
)

// halves is red on the left half and blue on the right.
func halves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseFit(t *testing.T) {
	tests := []struct {
		in      string
		want    Fit
		wantErr bool
	}{
		{"cover", FitCover, false},
		{" Stretch ", FitStretch, false},
		{"none", FitNone, false},
		{"contain", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	src := halves(60, 20)

	tests := []struct {
		name  string
		opts  PrepareOptions
		wantW int
		wantH int
	}{
		{"cover", PrepareOptions{Fit: FitCover, Size: 10}, 10, 10},
		{"stretch", PrepareOptions{Fit: FitStretch, Size: 10}, 10, 10},
		{"none", PrepareOptions{Fit: FitNone}, 60, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prepare(src, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			b := got.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
			// Nearest neighbour never blends red and blue.
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					r, g, bl, _ := got.At(x, y).RGBA()
					if g != 0 || (r != 0 && bl != 0) {
						t.Fatalf("Expected pure red or blue at %d,%d, got %d,%d,%d", x, y, r>>8, g>>8, bl>>8)
					}
				}
			}
		})
	}

	if _, err := Prepare(src, PrepareOptions{Fit: FitCover}); err == nil {
		t.Error("Expected error for zero size")
	}
}

func TestToRaster(t *testing.T) {
	src := halves(4, 2)
	// A sub-image has a non-zero origin and a wider stride.
	sub := halves(8, 4).SubImage(image.Rect(2, 1, 6, 3))

	for name, img := range map[string]image.Image{"full": src, "sub": sub} {
		t.Run(name, func(t *testing.T) {
			r, err := ToRaster(img)
			if err != nil {
				t.Fatal(err)
			}
			if r.Width != 4 || r.Height != 2 || r.Channels != 4 {
				t.Fatalf("Expected 4x2x4, got %dx%dx%d", r.Width, r.Height, r.Channels)
			}
			first := r.Pix[r.Offset(0, 0) : r.Offset(0, 0)+4]
			last := r.Pix[r.Offset(3, 1) : r.Offset(3, 1)+4]
			if !bytes.Equal(first, []byte{255, 0, 0, 255}) {
				t.Errorf("Expected red at origin, got %v", first)
			}
			if !bytes.Equal(last, []byte{0, 0, 255, 255}) {
				t.Errorf("Expected blue at the far corner, got %v", last)
			}
		})
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(path, encodePNG(t, halves(6, 6)), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := NewFileLoader().Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("Expected width 6, got %d", img.Bounds().Dx())
	}

	if _, err := NewFileLoader().Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := NewFileLoader().Load(dir); err == nil {
		t.Error("Expected error for directory")
	}
	if _, err := NewFileLoader().Load(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestSmartLoaderURL(t *testing.T) {
	data := encodePNG(t, halves(4, 4))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.png" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("Expected a User-Agent header")
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	loader := NewSmartLoader(httputil.FetchOptions{})
	img, err := loader.Load(srv.URL + "/cover.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("Expected width 4, got %d", img.Bounds().Dx())
	}
	if _, err := loader.Load(srv.URL + "/missing.png"); err == nil {
		t.Error("Expected error for 404")
	}

	small := NewSmartLoader(httputil.FetchOptions{MaxBytes: 8})
	if _, err := small.Load(srv.URL + "/cover.png"); err == nil {
		t.Error("Expected error for oversized body")
	}
}

func TestScanAndExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "song.flac", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ScanDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "song.flac"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	expanded, err := ExpandPaths([]string{"https://example.com/x.png", dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(expanded) != 4 || expanded[0] != "https://example.com/x.png" {
		t.Errorf("Expected URL followed by 3 files, got %v", expanded)
	}

	if _, err := ScanDirectory(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
	if _, err := ExpandPaths([]string{filepath.Join(dir, "nope")}); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestIsAudioFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.FLAC": true,
		"b.mp3":  true,
		"c.png":  false,
		"d":      false,
	} {
		if got := IsAudioFile(path); got != want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLoadRaw(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	dir := t.TempDir()

	plain := filepath.Join(dir, "img.raw")
	if err := os.WriteFile(plain, pix, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(pix); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "img.raw.xz")
	if err := os.WriteFile(compressed, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			img, err := LoadRaw(path, 2, 2, 3)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(img.Pix, pix) {
				t.Errorf("Expected %v, got %v", pix, img.Pix)
			}
		})
	}

	tests := []struct {
		name                    string
		width, height, channels int
		wantErr                 error
	}{
		{"too short", 3, 2, 3, raster.ErrBufferSize},
		{"too long", 1, 2, 3, raster.ErrBufferSize},
		{"bad channels", 3, 2, 2, raster.ErrUnsupportedChannels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRaw(plain, tt.width, tt.height, tt.channels)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
