package main

import "chcrawler/cmd/chcrawler/commands"

func main() {
	commands.Execute()
}
