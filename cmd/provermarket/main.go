// Command provermarket ingests prover marketplace witness inputs into a
// prover database.
package main

import (
	"context"
	"os"

	"github.com/roach88/provermarket/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
