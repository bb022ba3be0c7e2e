package strategy

import (
	"fmt"

	"github.com/jmylchreest/coverhue/internal/kmeans"
)

// Constant always clusters with the same k.
type Constant struct {
	K int
}

// DefaultConstant returns Constant{K: 10}.
func DefaultConstant() Constant {
	return Constant{K: 10}
}

// Validate checks k.
func (c Constant) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("constant k must be at least 1, got %d", c.K)
	}
	return nil
}

func (c Constant) Centroids(in Input) (kmeans.Set, error) {
	results, err := in.cluster(in.Entries, []int{c.K})
	if err != nil {
		return nil, err
	}
	return results[0].Centroids, nil
}

func (c Constant) String() string {
	return fmt.Sprintf("constant:%d", c.K)
}
