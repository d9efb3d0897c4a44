package main

import (
	"context"
	"os"

	"github.com/zyzu25/CIANCSC/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
