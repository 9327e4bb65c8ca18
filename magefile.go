//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

func Build() error {
	mg.Deps(BuildEutel)
	fmt.Println("Compilation finished")
	return nil
}

// cgoCommand runs the go tool with the HDF5 flags of the environment.
func cgoCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func BuildEutel() error {
	fmt.Println("Building eutel executable...")
	return cgoCommand("build", "-o", "./bin/eutel", "./eutel").Run()
}

// Test runs the library tests, which do not need HDF5, and then the rest.
func Test() error {
	fmt.Println("Testing pixel decoding, hot pixels and geometry...")
	if err := cgoCommand("test", "./pkg").Run(); err != nil {
		return err
	}
	fmt.Println("Testing event store and eutel...")
	return cgoCommand("test", "./pkg/store", "./eutel").Run()
}
