/* Compose OKD containers from a karaoke MIDI file */
package main

import (
	"github.com/yks1kit/okd/internal/cli"
)

func main() {
	cli.ComposeMain()
}
