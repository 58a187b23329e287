package main

import "github.com/nathanhack/bomp/cmd"

func main() {
	cmd.Execute()
}
