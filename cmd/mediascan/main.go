package main

import "github.com/mediascan/console/internal/cli"

func main() {
	cli.Execute()
}
