//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "echovision"
	mainPath   = "./cmd/echovision"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the echovision binary
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", binaryName, mainPath)
}

// Install installs the binary into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", mainPath)
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the tests with the race detector, the processor and server
// tests exercise concurrent requests
func Race() error {
	return sh.RunV("go", "test", "-race", "./internal/processor/...", "./internal/server/...")
}

// Integration runs the tests that call the real OpenAI API
func Integration() error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set for integration tests")
	}
	return sh.RunV("go", "test", "-count=1", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes the binary and the scratch directories
func Clean() error {
	for _, path := range []string{binaryName, "temp_uploads", "temp_audio"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}
