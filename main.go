package main

import "github.com/cesto-dev/cesto/cmd"

func main() {
	cmd.Execute()
}
