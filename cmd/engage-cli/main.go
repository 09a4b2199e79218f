package main

import "github.com/brightsmile/engagebot-go/internal/cli"

func main() {
	cli.Execute()
}
