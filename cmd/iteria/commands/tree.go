package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/livefir/iteria/internal/fragment"
)

// Tree prints the sanitized fragment tree of a document as the tree editor
// receives it. --scripts lists the captured script bodies instead.
func Tree(args []string) error {
	p, err := parseArgs(args)
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("document required: iteria tree <file> [--scripts]")
	}
	path := p.positional[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	tree, err := fragment.Parse(string(data))
	if err != nil {
		return err
	}
	capture := fragment.Sanitize(tree)

	if p.has("scripts") {
		for i, text := range capture.Texts() {
			fmt.Fprintf(stdout, "--- script %d ---\n%s\n", i+1, text)
		}
		return nil
	}

	encoded, err := fragment.Encode(tree)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, encoded, "", "  "); err != nil {
		return fmt.Errorf("failed to indent tree: %w", err)
	}
	out.WriteByte('\n')
	_, err = stdout.Write(out.Bytes())
	return err
}
