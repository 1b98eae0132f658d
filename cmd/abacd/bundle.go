package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/abacsys/decision-service/pkg/policy"
)

// runBundleCmd validates and inspects JSON policy-bundle files
// (SPEC_FULL.md §C.1) without touching a database: bundle import is an
// invariant-checking step ahead of whatever the surrounding admin
// surface does with a validated bundle, not a general CRUD path this
// service owns (spec.md §1).
func runBundleCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: abacd bundle <validate|show> --dir <path> [--name <bundle>]")
		return 2
	}

	switch args[0] {
	case "validate":
		return runBundleValidate(args[1:], stdout, stderr)
	case "show":
		return runBundleShow(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "abacd bundle: unknown subcommand %q\n", args[0])
		return 2
	}
}

func runBundleValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bundle validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "directory of policy_*.json bundle files (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" {
		fmt.Fprintln(stderr, "abacd bundle validate: --dir is required")
		return 2
	}

	loader := policy.NewLoader(*dir)
	if err := loader.LoadAll(); err != nil {
		fmt.Fprintf(stderr, "abacd bundle validate: %v\n", err)
		return 1
	}

	bundles := loader.AllBundles()
	for _, b := range bundles {
		fmt.Fprintf(stdout, "%s: %d policies, ok\n", b.Name, len(b.Policies))
	}
	fmt.Fprintf(stdout, "abacd bundle validate: %d bundle(s) valid\n", len(bundles))
	return 0
}

func runBundleShow(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bundle show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "directory of policy_*.json bundle files (required)")
	name := fs.String("name", "", "bundle name to print (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dir == "" || *name == "" {
		fmt.Fprintln(stderr, "abacd bundle show: --dir and --name are required")
		return 2
	}

	loader := policy.NewLoader(*dir)
	if err := loader.LoadAll(); err != nil {
		fmt.Fprintf(stderr, "abacd bundle show: %v\n", err)
		return 1
	}

	b, ok := loader.GetBundle(*name)
	if !ok {
		fmt.Fprintf(stderr, "abacd bundle show: no bundle named %q\n", *name)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(b)
	return 0
}
