// dakota preprocesses CUPL sources, substitutes literal patterns and
// inspects JEDEC fuse maps.
package main

import (
	"os"

	"github.com/corey/dakota/cmd/dakota/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
