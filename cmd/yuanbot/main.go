package main

import "yuan-rate-bot/internal/cli"

func main() {
	cli.Execute()
}
