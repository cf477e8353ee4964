package main

import "concretizer/internal/cli"

func main() {
	cli.Execute()
}
