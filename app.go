package main

import "github.com/masmgr/tdrspots/cmd"

func main() {
	cmd.Run()
}
