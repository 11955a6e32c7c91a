package main

import "os"

func main() {
	defer cleanup()
	os.Exit(1) // want "direct call to os.Exit in main.main is forbidden"
}

func cleanup() {
	os.Exit(0)
}
