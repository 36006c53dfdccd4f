package main

import "github.com/we-kode/mml.media/cmd"

func main() {
	cmd.Execute()
}
