package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"settingscatalog/internal/codec"
	"settingscatalog/internal/domain"
	"settingscatalog/internal/service"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

func newPathCmd(a *app) *cobra.Command {
	var (
		title  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "path <entry-id>",
		Short: "Show the path from an entry back to its root page",
		Long: `Show the path from an entry back to its root page, entry first.

By default the path lists entry labels. With --title it lists page titles
instead, and the given title stands in for the entry itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openCatalog(service.Options{})
			if err != nil {
				return err
			}

			repo := svc.Repository()
			id := domain.EntryID(args[0])
			if repo.GetEntry(id) == nil {
				return fmt.Errorf("entry %s not found", id)
			}

			var path []string
			if cmd.Flags().Changed("title") {
				path = repo.GetEntryPathWithTitle(id, title)
			} else {
				path = repo.GetEntryPathWithDisplayName(id)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if path == nil {
					path = []string{}
				}
				return json.NewEncoder(out).Encode(path)
			}
			_, err = fmt.Fprintln(out, strings.Join(path, " > "))
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "use page titles, with this title for the entry itself")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the path as a JSON array")
	return cmd
}

func newPagesCmd(a *app) *cobra.Command {
	var withEntries bool

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List every page reachable from a root page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openCatalog(service.Options{})
			if err != nil {
				return err
			}
			pages := svc.Repository().GetAllPageWithEntry()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, pagesTable(pages))
			if withEntries {
				fmt.Fprintln(out, entriesTable(pages))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withEntries, "entries", "e", false, "also list the entries of every page")
	return cmd
}

func pagesTable(pages []domain.PageWithEntry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("ID", "PROVIDER", "ARGS", "TITLE", "ENTRIES")

	for _, p := range pages {
		t.Row(string(p.Page.ID), p.Page.Name, p.Page.Params.String(), p.Title, strconv.Itoa(len(p.Entries)))
	}
	return t.String()
}

func entriesTable(pages []domain.PageWithEntry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("PAGE", "ID", "KIND", "LABEL", "OPENS")

	for _, p := range pages {
		for _, e := range p.Entries {
			opens := ""
			if to, ok := e.LinksTo(); ok {
				opens = to.DisplayName()
			}
			t.Row(p.Page.DisplayName(), string(e.ID), string(e.Kind()), e.Label, opens)
		}
	}
	return t.String()
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := codec.ForFormat(format); err != nil {
				return err
			}

			svc, err := a.openCatalog(service.Options{})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := svc.Export(format, w); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if output != "" && output != "-" {
				a.logger.Info("catalog exported", "format", format, "path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format ("+strings.Join(codec.Formats(), ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
