package main

import "github.com/tanq16/guardl/cmd"

func main() {
	cmd.Execute()
}
