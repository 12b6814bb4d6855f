package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// run executes the built CLI with the given arguments, streaming output.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Research searches public catalogs for sources on a topic and writes them
// to sources/<slug>.yaml. See prd002-research for full requirements.
func Research(query string) error {
	if err := Build(); err != nil {
		return err
	}
	out := filepath.Join("sources", slug(query)+".yaml")
	return run("research", query, "--out", out)
}

// Outline generates a book outline from a sources file and stores it in
// the library. See prd001-outline for full requirements.
func Outline(title, sourcesFile string) error {
	if err := Build(); err != nil {
		return err
	}
	return run("generate", "--title", title, "--sources", sourcesFile, "--save")
}

// slug converts a query into a filesystem-friendly file stem.
func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(fields, "-")
}
