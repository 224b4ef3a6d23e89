// Package main enables tcpping to execute as a CLI tool
package main

import (
	"os"

	"github.com/tcpping/tcpping/internal/app"
)

func main() {
	os.Exit(app.Run())
}
