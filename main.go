package main

import "github.com/modsentry/modsentry/cmd"

func main() {
	cmd.Execute()
}
