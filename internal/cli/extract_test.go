package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/extract"
)

func writeCover(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			c := color.NRGBA{R: 20, G: 20, B: 30, A: 255}
			if x >= 8 && x < 16 && y >= 8 && y < 16 {
				c = color.NRGBA{R: 240, G: 240, B: 230, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPalette() *extract.Palette {
	return &extract.Palette{
		Space:  colour.KindOKLab,
		Outer:  colour.RGB{R: 10, G: 10, B: 10},
		Inner:  colour.RGB{R: 250, G: 250, B: 250},
		Accent: colour.RGB{R: 200, G: 20, B: 20},
		Third:  colour.RGB{R: 10, G: 10, B: 10},
		Centroids: []extract.Swatch{
			{Color: colour.RGB{R: 10, G: 10, B: 10}, Count: 60},
			{Color: colour.RGB{R: 250, G: 250, B: 250}, Count: 30},
			{Color: colour.RGB{R: 200, G: 20, B: 20}, Count: 10},
		},
		InnerColors: []extract.Swatch{
			{Color: colour.RGB{R: 250, G: 250, B: 250}, Count: 30},
			{Color: colour.RGB{R: 200, G: 20, B: 20}, Count: 10},
		},
		OuterColors: []extract.Swatch{
			{Color: colour.RGB{R: 10, G: 10, B: 10}, Count: 60},
		},
	}
}

func TestFormatResults(t *testing.T) {
	one := []namedPalette{{Source: "a.png", Palette: testPalette()}}
	two := append(one, namedPalette{Source: "b.png", Palette: testPalette()})

	t.Run("hex", func(t *testing.T) {
		got, err := formatResults(one, "hex", false)
		if err != nil {
			t.Fatal(err)
		}
		want := "outer  #0a0a0a\ninner  #fafafa\naccent #c81414\nthird  #0a0a0a\n"
		if got != want {
			t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
		}
	})

	t.Run("rgb with sources", func(t *testing.T) {
		got, err := formatResults(two, "rgb", false)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(got, "# a.png\n") || !strings.Contains(got, "\n# b.png\n") {
			t.Errorf("Expected source headers, got:\n%s", got)
		}
		if !strings.Contains(got, "accent rgb(200, 20, 20)") {
			t.Errorf("Expected rgb values, got:\n%s", got)
		}
	})

	t.Run("table", func(t *testing.T) {
		got, err := formatResults(one, "table", false)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
		if len(lines) != 5 {
			t.Fatalf("Expected header, separator and 3 rows, got:\n%s", got)
		}
		if !strings.Contains(lines[2], "outer,third") || !strings.Contains(lines[2], "60.0%") {
			t.Errorf("Expected the dominant colour to carry outer and third, got %q", lines[2])
		}
		if !strings.Contains(lines[4], "inner") || !strings.Contains(lines[4], "accent") {
			t.Errorf("Expected the red swatch in the inner group as accent, got %q", lines[4])
		}
	})

	t.Run("json single", func(t *testing.T) {
		got, err := formatResults(one, "json", false)
		if err != nil {
			t.Fatal(err)
		}
		p, err := extract.ParseJSON([]byte(got))
		if err != nil {
			t.Fatal(err)
		}
		if p.Accent != testPalette().Accent {
			t.Errorf("Expected accent to survive, got %s", p.Accent.Hex())
		}
	})

	t.Run("json many", func(t *testing.T) {
		got, err := formatResults(two, "json", false)
		if err != nil {
			t.Fatal(err)
		}
		var out []jsonResult
		if err := json.Unmarshal([]byte(got), &out); err != nil {
			t.Fatal(err)
		}
		if len(out) != 2 || out[1].Source != "b.png" || out[1].Outer != "#0a0a0a" {
			t.Errorf("Unexpected JSON: %s", got)
		}
	})

	t.Run("preview", func(t *testing.T) {
		got, err := formatResults(one, "hex", true)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got, "\033[48;2;") {
			t.Errorf("Expected ANSI swatches, got %q", got)
		}
	})

	if _, err := formatResults(one, "yaml", false); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestWantPreview(t *testing.T) {
	if got, _ := wantPreview("always", "out.txt"); !got {
		t.Error("Expected always to enable previews")
	}
	if got, _ := wantPreview("never", ""); got {
		t.Error("Expected never to disable previews")
	}
	if got, _ := wantPreview("auto", "out.txt"); got {
		t.Error("Expected auto to disable previews when writing a file")
	}
	if _, err := wantPreview("sometimes", ""); err == nil {
		t.Error("Expected error for an unknown mode")
	}
}

func TestParseShape(t *testing.T) {
	w, h, c, err := parseShape("300x200x4")
	if err != nil {
		t.Fatal(err)
	}
	if w != 300 || h != 200 || c != 4 {
		t.Errorf("Expected 300x200x4, got %dx%dx%d", w, h, c)
	}
	for _, bad := range []string{"300x200", "axbxc", ""} {
		if _, _, _, err := parseShape(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	var f optionFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd, "inline", "off")
	if err := cmd.Flags().Set("strategy", "constant:4"); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COVERHUE_SPACE", "lab")
	t.Setenv("COVERHUE_STRATEGY", "gap:2-5")
	t.Setenv("COVERHUE_SIZE", "64")
	if err := applyEnv(cmd); err != nil {
		t.Fatal(err)
	}
	if f.space != "lab" {
		t.Errorf("Expected space from environment, got %q", f.space)
	}
	if f.strategy != "constant:4" {
		t.Errorf("Expected the explicit flag to win, got %q", f.strategy)
	}
	if f.size != 64 {
		t.Errorf("Expected size 64, got %d", f.size)
	}

	t.Setenv("COVERHUE_TRIM", "lots")
	if err := applyEnv(cmd); err == nil {
		t.Error("Expected error for a malformed environment value")
	}
}

func TestOptionFlags(t *testing.T) {
	var f optionFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd, "dedicated", "off")

	opts, err := f.options(hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}
	if opts.Key() != extract.DefaultOptions().Key() {
		t.Errorf("Expected default options, got %s", opts.Key())
	}
	if opts.Dispatcher == nil || opts.Dispatcher.Mode() != "dedicated" {
		t.Errorf("Expected a dedicated dispatcher, got %v", opts.Dispatcher)
	}

	f.dispatcher = "threads"
	if _, err := f.options(hclog.NewNullLogger()); err == nil {
		t.Error("Expected error for unknown dispatcher")
	}
	f.dispatcher = "inline"
	f.trim = 75
	if _, err := f.options(hclog.NewNullLogger()); err == nil {
		t.Error("Expected error for excessive trim")
	}

	st, err := f.openStore(hclog.NewNullLogger())
	if err != nil || st != nil {
		t.Errorf("Expected no store with caching off, got %v, %v", st, err)
	}
	f.cache = "memory"
	if st, err = f.openStore(hclog.NewNullLogger()); err != nil || st == nil {
		t.Errorf("Expected a memory store, got %v, %v", st, err)
	}
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	writeCover(t, dir, "a.png")
	writeCover(t, dir, "b.png")
	out := filepath.Join(dir, "palette.json")

	rootCmd.SetArgs([]string{"extract", "--format", "json", "--strategy", "constant:3", "--size", "16", "--output", out, dir})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var results []jsonResult
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("Expected a JSON array, got %s: %v", data, err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 palettes, got %d", len(results))
	}
	if results[0].Outer != results[1].Outer {
		t.Errorf("Expected identical images to share an outer colour, got %s and %s", results[0].Outer, results[1].Outer)
	}
	if !strings.HasSuffix(results[0].Source, "a.png") {
		t.Errorf("Expected sources in name order, got %s", results[0].Source)
	}
}
