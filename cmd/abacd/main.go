// Command abacd runs the ABAC decision service: the HTTP binding for
// the Access Control Facade's single public operation (spec.md §6.1),
// plus the operational subcommands a deployment needs around it
// (schema migration, bundle validation, cold-storage archival).
package main

import (
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq" // Postgres driver
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing: it never calls os.Exit itself so
// a test can capture stdout/stderr and the return code directly.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServeCmd(nil, stdout, stderr)
	}

	switch args[1] {
	case "serve", "server":
		return runServeCmd(args[2:], stdout, stderr)
	case "migrate":
		return runMigrateCmd(args[2:], stdout, stderr)
	case "bundle":
		return runBundleCmd(args[2:], stdout, stderr)
	case "archive":
		return runArchiveCmd(args[2:], stdout, stderr)
	case "doctor":
		return runDoctorCmd(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, "abacd 0.1.0")
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "abacd: unknown command %q\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "abacd — ABAC policy decision engine")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: abacd <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve     Run the decision service HTTP server (default)")
	fmt.Fprintln(w, "  migrate   Create/verify the schema for every store")
	fmt.Fprintln(w, "  bundle    Validate or inspect policy bundle files")
	fmt.Fprintln(w, "  archive   Push aged access logs to cold storage")
	fmt.Fprintln(w, "  doctor    Check configuration and store connectivity")
	fmt.Fprintln(w, "  version   Print the binary version")
	fmt.Fprintln(w, "  help      Show this help")
}
