// Command graphsketch is an interactive terminal graph editor with
// animated BFS/DFS, plus headless commands for querying and moving graphs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("graphsketch: ")+err.Error())
		os.Exit(1)
	}
}
