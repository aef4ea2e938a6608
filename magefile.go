//go:build mage

package main

import (
	"fmt"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - run the full check.
var Default = Check

// Build compiles every package.
func Build() error {
	return sh.RunV("go", "build", "./...")
}

// Test runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet across the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs build, vet, and tests.
func Check() error {
	mg.SerialDeps(Build, Vet, Test)
	return nil
}

// Examples builds the example binaries with version metadata.
func Examples() error {
	ldflags := fmt.Sprintf(
		"-X github.com/deckhand-dev/deckhand/internal/version.Version=dev "+
			"-X github.com/deckhand-dev/deckhand/internal/version.Date=%s",
		time.Now().UTC().Format(time.RFC3339),
	)
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/", "./examples/...")
}
