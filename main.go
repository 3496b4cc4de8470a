package main

import "github.com/ecotracehq/ecotrace/cmd"

func main() {
	cmd.Execute()
}
