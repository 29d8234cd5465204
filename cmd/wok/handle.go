package main

import (
	"os"

	"github.com/wok-dev/wok/internal/router"
)

// openHandle resolves the current working directory's mode and opens
// the router.Handle every command operates through.
func openHandle() (*router.Handle, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return router.Open(dir)
}
