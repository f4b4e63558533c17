package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("starting")
	os.Exit(1) // want `avoid using os.Exit in main.main`
}

// shutdown is not main.main, so the call below is allowed.
func shutdown() {
	os.Exit(0)
}
