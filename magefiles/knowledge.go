//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Import loads the dataset named by $DATASET into the local store.
func Import() error {
	mg.Deps(Init)

	dataset := os.Getenv("DATASET")
	if dataset == "" {
		return fmt.Errorf("set DATASET to the disease/symptom CSV to import")
	}
	return sh.RunV("go", "run", cmdPkg, "kb", "import", dataset)
}

// Serve runs the HTTP API against the local store.
func Serve() error {
	return sh.RunV("go", "run", cmdPkg, "serve", "--verbose")
}
