/* Dump an OKD karaoke container's chunks and metadata */
package main

import (
	"github.com/yks1kit/okd/internal/cli"
)

func main() {
	cli.DumpMain()
}
