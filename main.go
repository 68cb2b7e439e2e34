package main

import "github.com/KaramelBytes/tabsight-cli/cmd"

func main() {
	cmd.Execute()
}
