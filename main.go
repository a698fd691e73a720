package main

import "github.com/cohort-tools/apiserver/cmd"

func main() {
	cmd.Execute()
}
