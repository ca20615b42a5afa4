package main

import "woonstat/cmd"

func main() {
	cmd.Execute()
}
