package main

import (
	"os"

	"github.com/htol/libman/app"
)

func main() {
	os.Exit(app.CLI(os.Args[1:]))
}
