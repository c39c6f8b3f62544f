// cmd/tools/adminkey/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/reservatuscanchas/canchas/internal/api/authz"
)

// Prints a bcrypt hash for an admin API key. The key is read from stdin, or
// generated when -new is set.
func main() {
	generate := flag.Bool("new", false, "Generate a random key instead of reading one from stdin")
	name := flag.String("name", "admin", "Name recorded as the actor for this key")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *name, *generate); err != nil {
		fmt.Fprintln(os.Stderr, "adminkey:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, name string, generate bool) error {
	var key string
	if generate {
		key = strings.ReplaceAll(uuid.NewString(), "-", "")
		fmt.Fprintf(out, "key: %s\n", key)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return fmt.Errorf("empty key")
	}

	hash, err := authz.HashAPIKey(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "- name: %q\n  hash: %q\n", name, hash)
	return nil
}
