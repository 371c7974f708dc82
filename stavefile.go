//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
)

// Default target when running `stave` with no arguments.
var Default = Build

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"i": Install,
	"c": Clean,
}

const (
	binaryName = "dupsweep"
	mainPkg    = "./cmd/dupsweep"
	binDir     = "bin"
	coverFile  = "coverage.out"
)

// All runs the complete build pipeline.
func All() error {
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Build compiles the dupsweep binary.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", exeName(filepath.Join(binDir, binaryName)), mainPkg)
}

// Install builds and copies dupsweep to GOBIN, GOPATH/bin or /usr/local/bin.
func Install() error {
	st.Deps(Build)

	dir, err := installDir()
	if err != nil {
		return err
	}
	src := exeName(filepath.Join(binDir, binaryName))
	dst := exeName(filepath.Join(dir, binaryName))

	if st.Verbose() {
		fmt.Printf("Installing %s to %s\n", src, dst)
	}
	return sh.Copy(dst, src)
}

// Uninstall removes the installed binary.
func Uninstall() error {
	dir, err := installDir()
	if err != nil {
		return err
	}
	target := exeName(filepath.Join(dir, binaryName))

	if _, err := os.Stat(target); os.IsNotExist(err) {
		if st.Verbose() {
			fmt.Printf("Binary not found at %s, nothing to uninstall\n", target)
		}
		return nil
	}
	return os.Remove(target)
}

// Test runs all tests with race detection.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs the tests and writes a coverage profile.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverFile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if st.Verbose() {
		fmt.Printf("Removing %s/ and %s\n", binDir, coverFile)
	}
	if err := sh.Rm(coverFile); err != nil {
		return err
	}
	return sh.Rm(binDir + "/")
}

// Fmt formats all Go code.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("running gofmt: %w", err)
	}
	return sh.Run("goimports", "-w", ".")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// installDir resolves where Install puts the binary.
func installDir() (string, error) {
	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return "", fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin != "" {
		return bin, nil
	}

	gopath, err := sh.Output(gocmd, "env", "GOPATH")
	if err != nil {
		return "", fmt.Errorf("determining GOPATH: %w", err)
	}
	if gopath == "" {
		return "/usr/local/bin", nil
	}
	return filepath.Join(gopath, "bin"), nil
}

func exeName(path string) string {
	if runtime.GOOS == "windows" {
		return path + ".exe"
	}
	return path
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version := "dev"
	commit := "unknown"
	date := time.Now().Format(time.RFC3339)

	if v, err := sh.Output("git", "describe", "--tags", "--always"); err == nil && v != "" {
		version = strings.TrimSpace(v)
	}
	if c, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil && c != "" {
		commit = strings.TrimSpace(c)
	}

	pkg := "main"
	return fmt.Sprintf(
		"-s -w -X %s.version=%s -X %s.commit=%s -X %s.date=%s",
		pkg, version, pkg, commit, pkg, date,
	)
}
