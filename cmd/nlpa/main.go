// Command nlpa generates very large random graphs under the
// non-linear preferential attachment model.
package main

import "github.com/nlpa-go/nlpa/cmd/nlpa/cmd"

func main() {
	cmd.Execute()
}
