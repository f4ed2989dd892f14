package main

import "calsync/cmd"

func main() {
	cmd.Execute()
}
