package main

import (
	"github.com/ettorre/wordarena/internal/cli"
)

func main() {
	cli.Execute()
}
