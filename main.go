package main

import "github.com/sustainabot/ecopolicy/cmd"

func main() {
	cmd.Execute()
}
