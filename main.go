package main

import "matdoctor/cmd"

func main() {
	cmd.Execute()
}
