package main

import "github.com/vietddude/runrgateway/internal/cli"

func main() {
	cli.Execute()
}
