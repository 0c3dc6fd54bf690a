package main

import "readlog/cmd/readlog/commands"

func main() {
	commands.Execute()
}
