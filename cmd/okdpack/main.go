/* Pack per-track MIDI files into an OKD container */
package main

import (
	"github.com/yks1kit/okd/internal/cli"
)

func main() {
	cli.PackMain()
}
