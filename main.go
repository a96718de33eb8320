package main

import "github.com/camden-git/mediapicker/cli"

func main() {
	cli.Execute()
}
