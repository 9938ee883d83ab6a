//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the snapmig project using Mage.
//
// Usage:
//
//	mage build          Compile the snapmig binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests without the CLI package
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage smoke          Build, then migrate a scratch store end to end
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install snapmig to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "snapmig"
	binaryDir  = "bin"
	cmdDir     = "./cmd/snapmig"
	modulePath = "github.com/mesh-intelligence/snapmig"
)

// Build compiles the snapmig binary to bin/.
func Build() error {
	mg.Deps(mkBinDir)
	return sh.RunV(binGo, "build", "-v", "-o", binaryPath(), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, binaryPath())
}

// Smoke builds the binary and drives init, migrate and history against a
// scratch config and data directory.
func Smoke() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "snapmig-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	bin, err := filepath.Abs(binaryPath())
	if err != nil {
		return err
	}
	env := map[string]string{
		"SNAPMIG_CONFIG_DIR": filepath.Join(dir, "config"),
		"SNAPMIG_DATA_DIR":   filepath.Join(dir, "data"),
	}
	for _, args := range [][]string{
		{"init"},
		{"migrate", "smoke", "--target", "0"},
		{"inspect", "smoke"},
		{"history", "smoke"},
	} {
		if err := sh.RunWithV(env, bin, args...); err != nil {
			return err
		}
	}
	return nil
}

func mkBinDir() error {
	return os.MkdirAll(binaryDir, 0o755)
}

func binaryPath() string {
	return filepath.Join(binaryDir, binaryName)
}
