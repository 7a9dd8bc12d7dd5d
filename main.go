package main

import "github.com/fakeyudi/sessiondiff/cmd"

func main() {
	cmd.Execute()
}
