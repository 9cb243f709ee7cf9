package main

import "github.com/takumiyoshikawa/agentic/cmd/ag/commands"

func main() {
	commands.Execute()
}
