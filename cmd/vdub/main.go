package main

import "vdub/internal/cli"

func main() {
	cli.Main()
}
