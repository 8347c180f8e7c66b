package crm

import (
	"fmt"
	"strings"

	crmpkg "github.com/salespilot/screen-crm-assistant/pkg/crm"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// LeadsAction prints the leads CSV contents.
func LeadsAction(c *cli.Context) error {
	return printStore(c, c.String("leads"))
}

// AccountsAction prints the accounts CSV contents.
func AccountsAction(c *cli.Context) error {
	return printStore(c, c.String("accounts"))
}

func printStore(c *cli.Context, path string) error {
	store, err := crmpkg.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load CRM file: %w", err)
	}

	if c.String("format") == "yaml" {
		rows := make([]map[string]string, 0, len(store.Rows()))
		for _, record := range store.Rows() {
			rows = append(rows, record)
		}
		yamlBytes, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		fmt.Print(string(yamlBytes))
		return nil
	}

	header := store.Header()
	if len(header) == 0 {
		fmt.Printf("%s is empty (no header columns)\n", path)
		return nil
	}

	for _, col := range header {
		fmt.Printf("%-24s ", col)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("-", 25*len(header)))

	for _, record := range store.Rows() {
		for _, col := range header {
			fmt.Printf("%-24s ", record[col])
		}
		fmt.Println()
	}

	fmt.Printf("\nTotal: %d records\n", len(store.Rows()))
	return nil
}
