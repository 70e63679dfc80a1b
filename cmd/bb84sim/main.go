// Command bb84sim simulates BB84 key distribution runs, batches of runs, and
// verifies authenticated outcome logs.
package main

import "github.com/charmbracelet/log"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal("bb84sim", "err", err)
	}
}
