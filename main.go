package main

import "github.com/cisco-open/sastre-engine/cmd"

func main() {
	cmd.Execute()
}
