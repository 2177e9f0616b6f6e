package main

import "github.com/viktsys/varbreach/cmd"

func main() {
	cmd.Execute()
}
