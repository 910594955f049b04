/* Export an OKD karaoke container as a standard MIDI file */
package main

import (
	"github.com/yks1kit/okd/internal/cli"
)

func main() {
	cli.ExtractMain()
}
