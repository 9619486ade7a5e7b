package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/projects"
)

var (
	projectTypes []string
	projectTechs []string
	projectQuery string
	projectSort  string
	projectJSON  bool
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects through the filter, search and sort pipeline",
	Example: `  portfolio projects --technology Laravel --sort alpha-asc
  portfolio projects --type Backend --type API --query booking --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		out, err := listProjects(cat, projectTypes, projectTechs, projectQuery, projectSort)
		if err != nil {
			return err
		}
		if projectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		return printProjects(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := projectsCmd.Flags()
	f.StringArrayVar(&projectTypes, "type", nil, "project type to include (repeatable, OR)")
	f.StringArrayVar(&projectTechs, "technology", nil, "technology to require (repeatable, AND)")
	f.StringVarP(&projectQuery, "query", "q", "", "case-insensitive search text")
	f.StringVar(&projectSort, "sort", string(projects.DefaultSort), "date-desc, date-asc, alpha-asc, alpha-desc or priority")
	f.BoolVar(&projectJSON, "json", false, "print JSON instead of a table")
}

func listProjects(cat *catalog.Catalog, types, techs []string, query, sort string) ([]catalog.Record, error) {
	f := projects.DefaultFilters()
	for _, t := range types {
		if !cat.IsTypeOption(t) {
			return nil, fmt.Errorf("%w: type %q", catalog.ErrUnknownLabel, t)
		}
	}
	if len(types) > 0 {
		f.Type = types
	}
	for _, t := range techs {
		if !cat.IsTechnologyOption(t) {
			return nil, fmt.Errorf("%w: technology %q", catalog.ErrUnknownLabel, t)
		}
	}
	f.Technology = append(f.Technology, techs...)

	opt, err := projects.ParseSortOption(sort)
	if err != nil {
		return nil, err
	}
	return projects.Derive(cat.Records(), f, query, opt), nil
}

func printProjects(w io.Writer, recs []catalog.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDATE\tTYPE\tTECHNOLOGY\tPRIORITY")
	for _, r := range recs {
		priority := ""
		if r.Priority {
			priority = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Date, strings.Join(r.Type, ", "), strings.Join(r.Technology, ", "), priority)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d project(s)\n", len(recs))
	return err
}
