package main

import (
	"frameline/cmd"
)

func main() {
	cmd.Execute()
}
