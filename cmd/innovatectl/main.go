// Command innovatectl inspects and edits the local profile overrides and
// resolves the current user against the profile API.
package main

import (
	"context"
	"os"
)

func main() {
	env := environment{
		lookup: os.LookupEnv,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	if err := run(context.Background(), os.Args[1:], env); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
