package main

import (
	"os"

	"horse.fit/smartlingzd/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
