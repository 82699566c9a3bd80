package main

import "github.com/vietddude/dappwallet/internal/cli"

func main() {
	cli.Execute()
}
