package main

import "github.com/arnavshah/capacity-planner-api/internal/cli"

func main() {
	cli.Execute()
}
