package main

import "vecgrep/cmd"

func main() {
	cmd.Execute()
}
