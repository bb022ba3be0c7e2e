package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/extract"
	"github.com/jmylchreest/coverhue/internal/image"
	"github.com/jmylchreest/coverhue/internal/raster"
	"github.com/jmylchreest/coverhue/internal/store"
	"github.com/jmylchreest/coverhue/internal/task"
	httputil "github.com/jmylchreest/coverhue/internal/util/http"
)

var (
	extractFlags   optionFlags
	extractFormat  string
	extractOutput  string
	extractPreview string
	extractRaw     string
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <image>...",
	Short: "Extract the themed palette of one or more images",
	Long: `Extract the outer, inner, accent and third colours of an image.

Each argument may be an image file (JPEG, PNG, GIF, WebP, AVIF), an audio file
with embedded cover art, a directory (every supported file in it), or an
HTTP(S) URL. Every flag may also be set through a COVERHUE_<FLAG> environment
variable; flags given on the command line win.

Examples:
  # Print the four role colours
  coverhue extract cover.jpg

  # Full palette as JSON, computed in CIELAB with the gap statistic
  coverhue extract --format json --space lab --strategy gap:4-20 cover.jpg

  # Every cover in a directory, clustering on the shared worker pool
  coverhue extract --dispatcher shared ~/Music/covers

  # A raw 300x300 RGB pixel dump, optionally xz-compressed
  coverhue extract --raw 300x300x3 pixels.raw.xz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractFlags.register(extractCmd, task.ModeInline, "off")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "hex", "output format (hex, rgb, json, table)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().StringVar(&extractPreview, "preview", "auto", "show colour swatches (auto, always, never)")
	extractCmd.Flags().StringVar(&extractRaw, "raw", "", "read arguments as raw pixel dumps of shape WxHxC")
}

// source is one loaded input.
type source struct {
	name string
	img  raster.Image
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	if err := applyEnv(cmd); err != nil {
		return err
	}
	logger := newLogger(cmd)

	opts, err := extractFlags.options(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	prep, err := extractFlags.prepare()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	preview, err := wantPreview(extractPreview, extractOutput)
	if err != nil {
		return err
	}

	st, err := extractFlags.openStore(logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open palette cache: %w", err)
	}
	if st != nil {
		defer st.Close()
	}

	var paths []string
	if extractRaw != "" {
		paths = args
	} else if paths, err = image.ExpandPaths(args); err != nil {
		return err
	}

	results := make([]namedPalette, 0, len(paths))
	for _, path := range paths {
		src, err := loadSource(path, prep)
		if err != nil {
			return err
		}
		logger.Debug("image loaded", "source", src.name, "width", src.img.Width, "height", src.img.Height)

		o := opts
		o.Name = src.name
		p, err := extractOne(st, src.img, o)
		if err != nil {
			return fmt.Errorf("%s: %w", src.name, err)
		}
		results = append(results, namedPalette{Source: src.name, Palette: p})
	}

	output, err := formatResults(results, extractFormat, preview)
	if err != nil {
		return err
	}

	if extractOutput != "" {
		logger.Debug("writing output", "path", extractOutput)
		if err := os.WriteFile(extractOutput, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

func extractOne(st *store.Store, img raster.Image, opts extract.Options) (*extract.Palette, error) {
	if st == nil {
		return extract.Extract(img, opts)
	}
	p, hit, err := st.Extract(img, opts)
	if err != nil {
		return nil, err
	}
	if hit && opts.Logger != nil {
		opts.Logger.Debug("palette served from cache", "source", opts.Name)
	}
	return p, nil
}

func loadSource(path string, prep image.PrepareOptions) (source, error) {
	if extractRaw != "" {
		w, h, c, err := parseShape(extractRaw)
		if err != nil {
			return source{}, err
		}
		img, err := image.LoadRaw(path, w, h, c)
		if err != nil {
			return source{}, fmt.Errorf("%s: %w", path, err)
		}
		return source{name: path, img: img}, nil
	}

	loaded, err := image.NewSmartLoader(httputil.FetchOptions{}).Load(path)
	if err != nil {
		return source{}, fmt.Errorf("failed to load image: %w", err)
	}
	prepared, err := image.Prepare(loaded, prep)
	if err != nil {
		return source{}, err
	}
	img, err := image.ToRaster(prepared)
	if err != nil {
		return source{}, fmt.Errorf("%s: %w", path, err)
	}
	return source{name: path, img: img}, nil
}

// parseShape parses WxHxC.
func parseShape(s string) (w, h, c int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("raw shape must be WxHxC, got %q", s)
	}
	var dims [3]int
	for i, part := range parts {
		if dims[i], err = strconv.Atoi(part); err != nil {
			return 0, 0, 0, fmt.Errorf("raw shape must be WxHxC, got %q", s)
		}
	}
	return dims[0], dims[1], dims[2], nil
}

// wantPreview resolves --preview. auto shows swatches only when writing to
// a terminal.
func wantPreview(mode, output string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return output == "" && term.IsTerminal(int(os.Stdout.Fd())), nil
	default:
		return false, fmt.Errorf("invalid preview %q (valid: auto, always, never)", mode)
	}
}

type namedPalette struct {
	Source  string
	Palette *extract.Palette
}

// formatResults renders the palettes in the requested format.
func formatResults(results []namedPalette, format string, preview bool) (string, error) {
	switch format {
	case "json":
		return formatJSON(results)
	case "hex", "rgb", "table":
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, rgb, json, table)", format)
	}

	var sb strings.Builder
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "# %s\n", r.Source)
		}
		switch format {
		case "hex", "rgb":
			sb.WriteString(formatRoles(r.Palette, format, preview))
		case "table":
			sb.WriteString(formatTable(r.Palette, preview))
		}
	}
	return sb.String(), nil
}

func formatRoles(p *extract.Palette, format string, preview bool) string {
	var sb strings.Builder
	for _, role := range p.Roles() {
		value := role.Color.Hex()
		if format == "rgb" {
			value = role.Color.String()
		}
		if preview {
			sb.WriteString(colour.ColourPreview(role.Color, 4) + " ")
		}
		fmt.Fprintf(&sb, "%-6s %s\n", role.Name, value)
	}
	return sb.String()
}

func formatTable(p *extract.Palette, preview bool) string {
	headers := []string{"Colour", "Pixels", "Share", "Group", "Role"}
	if preview {
		headers = append([]string{""}, headers...)
	}
	table := NewTable(headers)

	var total uint64
	for _, s := range p.Centroids {
		total += s.Count
	}
	inner := make(map[colour.RGB]bool, len(p.InnerColors))
	for _, s := range p.InnerColors {
		inner[s.Color] = true
	}

	for _, s := range p.Centroids {
		group := "outer"
		if inner[s.Color] {
			group = "inner"
		}
		var roles []string
		for _, role := range p.Roles() {
			if role.Color == s.Color {
				roles = append(roles, role.Name)
			}
		}
		share := 0.0
		if total > 0 {
			share = float64(s.Count) / float64(total) * 100
		}
		row := []string{s.Color.Hex(), strconv.FormatUint(s.Count, 10), fmt.Sprintf("%.1f%%", share), group, strings.Join(roles, ",")}
		if preview {
			row = append([]string{colour.ColourPreviewWithText(s.Color, group, 7)}, row...)
		}
		table.AddRow(row)
	}
	return table.Render()
}

// jsonResult is the JSON form of one extracted source.
type jsonResult struct {
	Source string `json:"source"`
	extract.PaletteJSON
}

func formatJSON(results []namedPalette) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(results) == 1 {
		data, err = results[0].Palette.ToJSON()
	} else {
		out := make([]jsonResult, len(results))
		for i, r := range results {
			out[i] = jsonResult{Source: r.Source, PaletteJSON: r.Palette.JSON()}
		}
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// describeOptions logs the effective extraction options.
func describeOptions(logger hclog.Logger, opts extract.Options) {
	mode := "inline"
	if opts.Dispatcher != nil {
		mode = string(opts.Dispatcher.Mode())
	}
	logger.Info("extraction options", "options", opts.Key(), "dispatcher", mode)
}
