package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "collect":
		return runCollect(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "embed":
		return runEmbed(args[1:])
	case "reconcile":
		return runReconcile(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "youthscope CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  youthscope <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health     Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  collect    Crawl upstream notice feeds and upsert records")
	fmt.Fprintln(os.Stderr, "  validate   Validate notice record JSON files against the schema")
	fmt.Fprintln(os.Stderr, "  embed      Generate embeddings for notices and policies")
	fmt.Fprintln(os.Stderr, "  reconcile  Repair stored notices against fresh upstream data")
	fmt.Fprintln(os.Stderr, "  serve      Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"youthscope <command> -h\" for command-specific flags.")
}
