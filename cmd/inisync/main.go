// Command inisync inspects and edits iniconf files from the shell.
//
// Usage:
//
//	inisync dump <file> [--format ini|toml|yaml|json]  - Print the file in another encoding
//	inisync get <file> <section> <key>                 - Print one raw value
//	inisync set <file> <section> <key> <value>         - Update one entry in place
//	inisync fmt <file> [--write]                       - Normalize layout
//
// set never touches other entries or their descriptions; --doc replaces the
// description of the entry being set.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/iniconf"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	store := iniconf.NewDirStore("")

	root := &cobra.Command{
		Use:          "inisync",
		Short:        "Inspect and edit iniconf files",
		SilenceUsage: true,
	}
	root.SetOut(out)

	// ---- dump command ----
	var format string
	dumpCmd := &cobra.Command{
		Use:     "dump <file>",
		Short:   "Print a config file as ini, toml, yaml or json",
		Example: "inisync dump settings.ini --format yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := iniconf.ReadFile(store, args[0])
			if err != nil {
				return err
			}
			data, err := encodeDocument(doc, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	dumpCmd.Flags().StringVarP(&format, "format", "f", "ini", "output format: ini, toml, yaml, json")

	// ---- get command ----
	getCmd := &cobra.Command{
		Use:   "get <file> <section> <key>",
		Short: "Print the raw value of one setting",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := iniconf.ReadFile(store, args[0])
			if err != nil {
				return err
			}
			entry, ok := doc.Get(args[1], args[2])
			if !ok {
				return fmt.Errorf("setting %s.%s not found in %s", args[1], args[2], args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.Value)
			return nil
		},
	}

	// ---- set command ----
	var description string
	setCmd := &cobra.Command{
		Use:     "set <file> <section> <key> <value>",
		Short:   "Update one setting, leaving the rest of the file untouched",
		Example: `inisync set settings.ini Audio Volume 60 --doc "Master volume."`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := iniconf.ReadFile(store, args[0])
			if err != nil {
				return err
			}
			if err := iniconf.ValidateEntry(args[1], args[2], args[3]); err != nil {
				return err
			}
			if cmd.Flags().Changed("doc") {
				doc.Put(args[1], args[2], args[3], iniconf.SplitDescription(description))
			} else {
				doc.Set(args[1], args[2], args[3])
			}
			return iniconf.WriteFile(store, args[0], doc)
		},
	}
	setCmd.Flags().StringVar(&description, "doc", "", "description written above the entry")

	// ---- fmt command ----
	var write bool
	fmtCmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Normalize a config file's layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := iniconf.ReadFile(store, args[0])
			if err != nil {
				return err
			}
			if write {
				return iniconf.WriteFile(store, args[0], doc)
			}
			_, err = doc.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	fmtCmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")

	root.AddCommand(dumpCmd, getCmd, setCmd, fmtCmd)
	return root
}

// encodeDocument renders doc with each section as a table of raw string values.
func encodeDocument(doc *iniconf.Document, format string) ([]byte, error) {
	switch format {
	case "ini":
		return doc.Render(), nil

	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(documentMap(doc)); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to TOML: %w", err)
		}
		return buf.Bytes(), nil

	case "yaml":
		// A node tree keeps file order, which a map would not.
		root := &yaml.Node{Kind: yaml.MappingNode}
		for _, s := range doc.Sections() {
			table := &yaml.Node{Kind: yaml.MappingNode}
			for _, e := range s.Entries() {
				key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
				if len(e.Description) > 0 {
					key.HeadComment = joinLines(e.Description)
				}
				table.Content = append(table.Content, key,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value})
			}
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: s.Name}, table)
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case "json":
		data, err := json.MarshalIndent(documentMap(doc), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config data to JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	return nil, fmt.Errorf("unknown format %q", format)
}

func documentMap(doc *iniconf.Document) map[string]map[string]string {
	out := make(map[string]map[string]string, len(doc.Sections()))
	for _, s := range doc.Sections() {
		table := make(map[string]string, len(s.Entries()))
		for _, e := range s.Entries() {
			table[e.Key] = e.Value
		}
		out[s.Name] = table
	}
	return out
}

// joinLines turns description lines into a YAML comment block.
func joinLines(lines []string) string {
	var buf bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString("# ")
		buf.WriteString(l)
	}
	return buf.String()
}
