package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/iteria/cmd/iteria/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "serve":
		err = commands.Serve(args)
	case "add-page":
		err = commands.AddPage(args)
	case "format":
		err = commands.Format(args)
	case "tree":
		err = commands.Tree(args)
	case "history":
		err = commands.History(args)
	case "revert":
		err = commands.Revert(args)
	case "config":
		err = commands.Config(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("iteria version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		revision := commit
		if revision == "unknown" {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					revision = setting.Value
				}
			}
		}
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if revision != "" && revision != "unknown" {
			fmt.Printf("commit: %s\n", revision)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("iteria: structured tree editing for markup components")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  iteria serve <file> [--addr host:port]      Open a document in the tree editor")
	fmt.Println("  iteria add-page [<name>] [--force]          Create a page under the pages directory")
	fmt.Println("  iteria format <file> [--write] [--strict]   Reorder script, style and markup blocks")
	fmt.Println("  iteria tree <file> [--scripts]              Print the tree the editor receives")
	fmt.Println("  iteria history <file> [--limit n]           List edits applied from the tree editor")
	fmt.Println("  iteria revert <revision-id>                 Restore a document to before an edit")
	fmt.Println("  iteria config <get|set|list|path>           Manage configuration")
	fmt.Println("  iteria version                              Show version information")
	fmt.Println()
	fmt.Println("Flags shared by serve, format, history and revert:")
	fmt.Println("  --theme light|dark|high-contrast   --journal <path>   --debounce 100ms   --order <ordering>")
}
