// Package image loads cover images from files, URLs and audio tags and turns
// them into raw pixel buffers for extraction.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif" // Register AVIF format
	"go.senan.xyz/taglib"
	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/coverhue/internal/util/http"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem. Audio files yield their
// embedded cover art.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, AVIF, and the cover art of
// tagged audio files.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if IsAudioFile(path) {
		return loadCoverArt(path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// loadCoverArt decodes the first picture embedded in an audio file's tags.
func loadCoverArt(path string) (image.Image, error) {
	data, err := taglib.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover art from %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no embedded cover art in %s", path)
	}
	return Decode(data)
}

// Decode decodes an image held in memory, honouring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
}

// AudioExtensions returns the audio file extensions cover art is read from.
func AudioExtensions() []string {
	return []string{".mp3", ".flac", ".m4a", ".ogg", ".opus", ".wv", ".ape", ".aiff", ".wav"}
}

func hasExtension(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// IsAudioFile reports whether path has an audio extension.
func IsAudioFile(path string) bool {
	return hasExtension(path, AudioExtensions())
}

// isSourceFile reports whether a file can be loaded by FileLoader.
func isSourceFile(path string) bool {
	return hasExtension(path, SupportedImageExtensions()) || IsAudioFile(path)
}

// ScanDirectory returns the loadable files directly inside dirPath, sorted by
// name. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectory(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		if isSourceFile(entry.Name()) {
			files = append(files, fullPath)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no supported image or audio files found in directory: %s", dirPath)
	}
	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces every directory in paths with the files ScanDirectory
// finds in it. URLs and files are kept in place.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if IsURL(p) {
			out = append(out, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ScanDirectory(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// IsURL reports whether path is an HTTP(S) URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	fetch      httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(fetch httputil.FetchOptions) *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		fetch:      fetch,
	}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(path string) (image.Image, error) {
	if IsURL(path) {
		return l.loadFromURL(path)
	}
	return l.fileLoader.Load(path)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) loadFromURL(url string) (image.Image, error) {
	data, err := httputil.Fetch(context.Background(), url, l.fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}
	return Decode(data)
}
