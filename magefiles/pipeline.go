//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scrape runs one scrape-classify-deliver pass against the live sources.
func Scrape() error {
	mg.Deps(Init)
	return sh.RunV("go", "run", cmdPkg, "scrape", "--report", "data/last-run.yaml")
}

// DryRun scrapes and classifies without posting anything to the backend.
func DryRun() error {
	mg.Deps(Init)
	return sh.RunV("go", "run", cmdPkg, "scrape", "--dry-run", "--report", "data/dry-run.yaml")
}

// Serve starts the classification API on :8080.
func Serve() error {
	return sh.RunV("go", "run", cmdPkg, "serve")
}
