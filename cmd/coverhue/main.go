// coverhue derives a themed colour palette (outer, inner, accent and third
// colours) from cover art.
package main

import (
	"github.com/jmylchreest/coverhue/internal/cli"
)

func main() {
	cli.Execute()
}
