package main

import "github.com/timvw/pane-wrangler/cmd"

func main() {
	cmd.Execute()
}
