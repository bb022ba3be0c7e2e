package strategy

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/task"
)

// spread returns a sorted histogram of groups of similar colours.
func spread(space colour.Space) []histogram.Entry {
	bases := []colour.RGB{
		{R: 240, G: 30, B: 30},
		{R: 30, G: 200, B: 40},
		{R: 20, G: 30, B: 220},
		{R: 245, G: 245, B: 240},
		{R: 10, G: 10, B: 12},
	}
	var entries []histogram.Entry
	for i, b := range bases {
		for d := 0; d < 12; d++ {
			c := b
			c.R = uint8(int(c.R) + d%3 - 1)
			c.B = uint8(int(c.B) + d/3 - 2)
			entries = append(entries, histogram.Entry{Color: space.FromRGB(c), Count: uint32(200 - i*20 - d)})
		}
	}
	return histogram.FromEntries(entries).Sorted()
}

func input(kind colour.Kind, entries []histogram.Entry, d task.Dispatcher) Input {
	return Input{
		Name:        "test",
		Space:       kind,
		Entries:     entries,
		TotalPixels: int(histogram.Total(entries)),
		Dispatcher:  d,
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"constant", "constant:10", false},
		{"constant:5", "constant:5", false},
		{"elbow", "elbow:1,2,3,4;50,100", false},
		{"Elbow:1,2;10, 20", "elbow:1,2;10,20", false},
		{"elbow:1,2;", "elbow:1,2;", false},
		{"gap", "gap:1-10", false},
		{"gap:4-20", "gap:4-20", false},
		{"constant:0", "", true},
		{"constant:x", "", true},
		{"elbow:1,2", "", true},
		{"elbow:;50", "", true},
		{"elbow:0;50", "", true},
		{"gap:5-2", "", true},
		{"gap:5", "", true},
		{"median", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, s.String())
			}
			again, err := Parse(s.String())
			if err != nil || !reflect.DeepEqual(again, s) {
				t.Errorf("String() does not round trip: %v, %v", again, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if Default().String() != "elbow:1,2,3,4;50,100" {
		t.Errorf("unexpected default strategy %s", Default())
	}
}

func TestRobustSlope(t *testing.T) {
	tests := []struct {
		name string
		ks   []int
		wcss []float64
		want float64
	}{
		{"line", []int{1, 2, 3, 4}, []float64{10, 8, 6, 4}, -2},
		{"outlier dropped", []int{1, 2, 3, 4, 5}, []float64{10, 8, 6, 4, 1000}, -2},
		{"single point", []int{4}, []float64{3}, 0},
		{"flat", []int{50, 100}, []float64{2, 2}, 0},
		{"vertical", []int{3, 3}, []float64{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := robustSlope(tt.ks, tt.wcss); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected slope %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOptimalK(t *testing.T) {
	start := []int{1, 2, 3, 4}
	tests := []struct {
		intersection float64
		n            int
		want         int
	}{
		{3.6, 100, 4},
		{7.4, 100, 7},
		{0.3, 100, 1},
		{-12, 100, 1},
		{1000, 50, 50},
		{math.NaN(), 100, 4},
		{math.Inf(1), 100, 4},
		{math.Inf(-1), 3, 3},
	}
	for _, tt := range tests {
		if got := optimalK(tt.intersection, tt.n, start); got != tt.want {
			t.Errorf("optimalK(%v, %d) = %d, want %d", tt.intersection, tt.n, got, tt.want)
		}
	}
}

func TestConstant(t *testing.T) {
	space := colour.OKLab()
	entries := spread(space)
	got, err := Constant{K: 5}.Centroids(input(colour.KindOKLab, entries, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 5 {
		t.Errorf("Expected 5 centroids, got %d", got.Len())
	}
	if got.Total() != histogram.Total(entries) {
		t.Errorf("Expected every pixel assigned, got %d of %d", got.Total(), histogram.Total(entries))
	}
}

func TestElbowSingleColour(t *testing.T) {
	entries := []histogram.Entry{{Color: 0x123456, Count: 9}}
	got, err := DefaultElbow().Centroids(input(colour.KindRGB, entries, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 || got.Count(0x123456) != 9 {
		t.Errorf("unexpected centroids %+v", got)
	}
}

func TestElbowFewColours(t *testing.T) {
	space := colour.RGBSpace()
	entries := histogram.FromEntries([]histogram.Entry{
		{Color: space.FromRGB(colour.RGB{R: 255}), Count: 10},
		{Color: space.FromRGB(colour.RGB{G: 255}), Count: 7},
		{Color: space.FromRGB(colour.RGB{B: 255}), Count: 4},
	}).Sorted()

	got, err := DefaultElbow().Centroids(input(colour.KindRGB, entries, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() < 1 || got.Len() > 3 {
		t.Errorf("Expected between 1 and 3 centroids, got %d", got.Len())
	}

	// Every start sample is at or above the number of colours.
	got, err = Elbow{Start: []int{5, 6}, End: []int{50}}.Centroids(input(colour.KindRGB, entries, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Errorf("Expected one centroid per colour, got %d", got.Len())
	}
}

func TestElbowExactPoint(t *testing.T) {
	tests := []struct {
		end  []int
		n    int
		want bool
	}{
		{[]int{50, 100}, 201, true},
		{[]int{50, 100}, 200, false},
		// Unsorted samples compare against the largest, not the last.
		{[]int{100, 50}, 150, false},
		{[]int{100, 50}, 201, true},
		{nil, 1, true},
	}
	for _, tt := range tests {
		if got := wantsExactPoint(tt.end, tt.n); got != tt.want {
			t.Errorf("wantsExactPoint(%v, %d) = %v, want %v", tt.end, tt.n, got, tt.want)
		}
	}
}

func TestElbowBoundedAndDeterministic(t *testing.T) {
	for _, kind := range colour.Kinds() {
		entries := spread(kind.Space())
		e := Elbow{Start: []int{1, 2, 3, 4}, End: []int{20, 30}}

		inline, err := e.Centroids(input(kind, entries, task.NewInline(nil)))
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := e.Centroids(input(kind, entries, task.NewDedicated(nil)))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(inline, parallel) {
			t.Errorf("%s: dispatchers disagree: %v vs %v", kind, inline, parallel)
		}
		if inline.Len() < 1 || inline.Len() > len(entries) {
			t.Errorf("%s: k out of range: %d", kind, inline.Len())
		}
	}
}

func TestGapPicksExactFit(t *testing.T) {
	space := colour.OKLab()
	entries := histogram.FromEntries([]histogram.Entry{
		{Color: space.FromRGB(colour.RGB{R: 250, G: 10, B: 10}), Count: 120},
		{Color: space.FromRGB(colour.RGB{R: 10, G: 250, B: 10}), Count: 100},
		{Color: space.FromRGB(colour.RGB{R: 10, G: 10, B: 250}), Count: 80},
	}).Sorted()

	// Three clusters fit exactly, so the gap is infinite at k=3.
	got, err := Gap{MinK: 1, MaxK: 5}.Centroids(input(colour.KindOKLab, entries, task.NewDedicated(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Errorf("Expected 3 centroids, got %d", got.Len())
	}
}

func TestGapWithinRange(t *testing.T) {
	entries := spread(colour.Lab())
	got, err := Gap{MinK: 2, MaxK: 6}.Centroids(input(colour.KindLab, entries, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() < 2 || got.Len() > 6 {
		t.Errorf("Expected between 2 and 6 centroids, got %d", got.Len())
	}
}

func TestReference(t *testing.T) {
	if Reference(colour.RGBSpace(), 0) != nil {
		t.Error("Expected empty reference for size 0")
	}

	got := Reference(colour.RGBSpace(), 4)
	want := map[colour.Color]bool{0x000000: true, 0x400000: true, 0x800000: true, 0xbfffff: true}
	if len(got) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(got))
	}
	for _, e := range got {
		if !want[e.Color] || e.Count != 1 {
			t.Errorf("unexpected entry %06x x%d", uint32(e.Color), e.Count)
		}
	}

	lab := Reference(colour.Lab(), 1000)
	if histogram.Total(lab) != 1000 {
		t.Errorf("Expected 1000 reference pixels, got %d", histogram.Total(lab))
	}
}

type failing struct{ err error }

func (f failing) Run(req task.Request) *task.Future {
	return task.Resolved(task.Response{}, &task.Error{Kind: req.Kind, Name: req.Name, Err: f.err})
}

func (failing) Mode() task.Mode { return task.ModeInline }

func TestStrategiesPropagateTaskFailure(t *testing.T) {
	boom := errors.New("boom")
	entries := spread(colour.RGBSpace())
	for _, s := range []Strategy{DefaultConstant(), DefaultElbow(), DefaultGap()} {
		_, err := s.Centroids(input(colour.KindRGB, entries, failing{err: boom}))
		if !errors.Is(err, boom) || !errors.Is(err, task.ErrTaskFailed) {
			t.Errorf("%s: Expected task failure, got %v", s, err)
		}
	}
}
