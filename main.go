package main

import "github.com/fakeyudi/tabkeep/cmd"

func main() {
	cmd.Execute()
}
