package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.4.2"

// PrintUsage writes the top-level help text to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `vaultrag - Ask Questions About Your Notes

Version: %s

USAGE:
    vaultrag [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.vaultrag/config/vaultrag.yaml)

    -vault <path>
        Override vault path

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    index
        Chunk and embed the vault into the vector store

    ask
        Answer a question from the indexed notes

    search
        Retrieve matching chunks without generating an answer

    status
        Show index statistics for the current vault

    config
        Create or inspect the configuration file

EXAMPLES:
    # Index the current directory
    vaultrag index

    # Index a specific vault
    vaultrag -vault ~/notes index

    # Ask a question
    vaultrag ask "when did I last repot the ficus?"

    # Ask with extra steering and more context chunks
    vaultrag ask -guidance "answer as a checklist" -k 8 "moving house todos"

    # Retrieve chunks only
    vaultrag search "ansible vault password"

    # Keyword retrieval instead of vector similarity
    vaultrag search -mode keyword "postgres WAL"

    # Show index statistics
    vaultrag status

    # Write a starter config file
    vaultrag config -init

For detailed help on each command, use:
    vaultrag <command> -help
`, Version)
}

// StringList is a flag.Value that collects multiple strings
type StringList []string

func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

// Set appends one value, so the flag can be passed multiple times.
func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
