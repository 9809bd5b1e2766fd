package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/history"
	"github.com/fbettag/llmdb/internal/picker"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/query"
	"github.com/fbettag/llmdb/internal/spec"
)

func newBuildCommand() *cobra.Command {
	var record bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the catalog from the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, _, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			snap := report.Snapshot
			fmt.Fprintf(out, "epoch %d: %d providers, %d models\n", snap.Meta.Epoch, len(snap.Providers), len(snap.Models))
			kinds := make([]string, 0, len(report.Dropped))
			for kind := range report.Dropped {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				fmt.Fprintf(out, "dropped %d %s records\n", report.Dropped[kind], kind)
			}
			if report.Filtered > 0 {
				fmt.Fprintf(out, "filtered %d models\n", report.Filtered)
			}
			for _, p := range report.Unknown {
				fmt.Fprintf(out, "warning: filter names unknown provider %s\n", p)
			}
			if !record {
				return nil
			}
			entry, err := history.Record(history.Build{
				ID:          snap.Meta.BuildID,
				Epoch:       snap.Meta.Epoch,
				GeneratedAt: snap.Meta.GeneratedAt,
				Providers:   len(snap.Providers),
				Models:      len(snap.Models),
				Dropped:     snap.Meta.Dropped,
				Sources:     snap.Meta.Sources,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "recorded build %s\n", entry.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&record, "record", true, "Append the build to the history log")
	return cmd
}

func newProvidersCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List catalog providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			providers := cat.Providers()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), providers)
			}
			rows := make([][]string, 0, len(providers))
			for _, p := range providers {
				regions := strings.Join(provider.RegionPrefixes(p.ID), " ")
				rows = append(rows, []string{p.ID.String(), p.Name, strconv.Itoa(len(cat.Models(p.ID))), p.BaseURL, regions})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "MODELS", "BASE URL", "REGION PREFIXES"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

type selectFlags struct {
	require    []string
	forbid     []string
	prefer     []string
	scope      string
	deprecated bool
}

func (f *selectFlags) register(cmd *cobra.Command, deprecatedDefault bool) {
	cmd.Flags().StringSliceVar(&f.require, "require", nil, "Capability keys a model must have ("+strings.Join(query.CapabilityKeys(), ", ")+")")
	cmd.Flags().StringSliceVar(&f.forbid, "forbid", nil, "Capability keys a model must not have")
	cmd.Flags().StringVar(&f.scope, "provider", "", "Only consider this provider")
	cmd.Flags().BoolVar(&f.deprecated, "deprecated", deprecatedDefault, "Include deprecated models")
}

func (f *selectFlags) options() (query.SelectOptions, error) {
	opts := query.SelectOptions{
		Require:           f.require,
		Forbid:            f.forbid,
		IncludeDeprecated: f.deprecated,
	}
	if f.scope != "" {
		p, err := provider.Parse(f.scope)
		if err != nil {
			return opts, err
		}
		opts.Scope = p
	}
	for _, raw := range f.prefer {
		p, err := provider.Parse(raw)
		if err != nil {
			return opts, err
		}
		opts.Prefer = append(opts.Prefer, p)
	}
	return opts, nil
}

func newModelsCommand() *cobra.Command {
	var (
		flags  selectFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			_, cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			models, err := cat.Candidates(opts)
			if err != nil {
				return err
			}
			sort.SliceStable(models, func(i, j int) bool {
				return models[i].Key().String() < models[j].Key().String()
			})
			if asJSON {
				return printJSON(cmd.OutOrStdout(), models)
			}
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, modelRow(m))
			}
			printTable(cmd.OutOrStdout(), []string{"SPEC", "NAME", "FAMILY", "CONTEXT", "ALIASES", "NOTES"}, rows)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func modelRow(m catalog.Model) []string {
	window := "-"
	if m.Limits.Context > 0 {
		window = strconv.Itoa(m.Limits.Context)
	}
	var notes []string
	if m.Deprecated {
		notes = append(notes, "deprecated")
	}
	if m.Capabilities.Embeddings {
		notes = append(notes, "embeddings")
	}
	if m.Capabilities.Reasoning.Enabled {
		notes = append(notes, "reasoning")
	}
	return []string{m.Key().String(), m.Name, m.Family, window, strings.Join(m.Aliases, ","), strings.Join(notes, ",")}
}

func newResolveCommand() *cobra.Command {
	var (
		scope  string
		format string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "resolve SPEC",
		Short: "Resolve provider:model or model@provider to its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := spec.ParseFormat(format)
			if err != nil {
				return err
			}
			opts := []spec.Option{spec.WithFormat(f)}
			if scope != "" {
				p, err := provider.Parse(scope)
				if err != nil {
					return err
				}
				opts = append(opts, spec.WithScope(p))
			}
			_, cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			res, err := cat.ModelSpec(args[0], opts...)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Spec(outputFormat(args[0], f)))
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Resolve bare ids under this provider")
	cmd.Flags().StringVar(&format, "format", "auto", "Spec form: auto, colon or at")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the resolved model as JSON")
	return cmd
}

// outputFormat echoes the form the caller used, colon when it cannot be told.
func outputFormat(input string, f spec.Format) spec.Format {
	if f != spec.FormatAuto {
		return f
	}
	if _, _, used, err := spec.Split(input, f); err == nil && used == spec.FormatAt {
		return spec.FormatAt
	}
	return spec.FormatColon
}

func newSelectCommand() *cobra.Command {
	var (
		flags selectFlags
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick the preferred model satisfying capability constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			_, cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if all {
				candidates, err := cat.Candidates(opts)
				if err != nil {
					return err
				}
				for _, m := range candidates {
					fmt.Fprintln(out, m.Key())
				}
				return nil
			}
			m, err := cat.Select(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, m.Key())
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringSliceVar(&flags.prefer, "prefer", nil, "Providers to try first, in order")
	cmd.Flags().BoolVar(&all, "all", false, "Print every candidate in preference order")
	return cmd
}

func newPickCommand() *cobra.Command {
	var (
		flags  selectFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a model interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := spec.ParseFormat(format)
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			_, cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			models, err := cat.Candidates(opts)
			if err != nil {
				return err
			}
			chosen, err := picker.Select(cmd.Context(), models, picker.Config{Format: f})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), spec.FormatSpec(chosen.Provider, chosen.ID, f))
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringVar(&format, "format", "colon", "Spec form to print: colon or at")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [provider|model]",
		Short:     "Print the JSON Schema of catalog records",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"provider", "model"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "model"
			if len(args) == 1 {
				kind = args[0]
			}
			schema, err := recordSchema(kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), schema)
		},
	}
}

func recordSchema(kind string) (*jsonschema.Schema, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
	}
	var schema *jsonschema.Schema
	switch kind {
	case "provider":
		schema = reflector.Reflect(&catalog.Provider{})
		schema.Title = "llmdb provider"
	case "model":
		schema = reflector.Reflect(&catalog.Model{})
		schema.Title = "llmdb model"
	default:
		return nil, fmt.Errorf("unknown record kind %q (want provider or model)", kind)
	}
	return schema, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}
