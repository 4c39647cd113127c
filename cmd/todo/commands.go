package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"todo-app/app"
	"todo-app/model"
)

var errAmbiguousID = errors.New("id prefix matches more than one task")

func newListCmd(flags *globalFlags) *cobra.Command {
	var filter string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the tasks matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return err
			}
			return withSession(cmd, flags, func(s *session) error {
				if err := s.svc.SetFilter(f); err != nil {
					return err
				}
				if markdown {
					return printMarkdown(cmd.OutOrStdout(), f, s.svc.Visible())
				}
				return printList(cmd.OutOrStdout(), s.svc.Visible())
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(model.FilterAll), "all, active or completed")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render the list as a markdown task list")
	return cmd
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				item, err := s.svc.Add(strings.Join(args, " "))
				if errors.Is(err, app.ErrEmptyText) {
					return fmt.Errorf("your task has no name: %w", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", item.ID)
				return nil
			})
		},
	}
}

func newDoneCmd(flags *globalFlags) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task complete (or active again with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				item, err := resolveID(s.svc, args[0])
				if err != nil {
					return err
				}
				s.svc.SetComplete(item.ID, !undo)
				state := "complete"
				if undo {
					state = "active"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", item.ID, state)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task active again")
	return cmd
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				item, err := resolveID(s.svc, args[0])
				if err != nil {
					return err
				}
				s.svc.Remove(item.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", item.ID)
				return nil
			})
		},
	}
}

func newEditCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if text == "" {
				return fmt.Errorf("your task has no name: %w", app.ErrEmptyText)
			}
			return withSession(cmd, flags, func(s *session) error {
				item, err := resolveID(s.svc, args[0])
				if err != nil {
					return err
				}
				s.svc.UpdateText(item.ID, text)
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", item.ID)
				return nil
			})
		},
	}
}

func newToggleAllCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Mark every task complete, or every task active if all are complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				s.svc.ToggleAllComplete()
				counts := s.svc.FilterCounts()
				fmt.Fprintf(cmd.OutOrStdout(), "%d active, %d completed\n", counts.Active, counts.Completed)
				return nil
			})
		},
	}
}

func newCountsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Print how many tasks each filter shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				counts := s.svc.FilterCounts()
				parts := make([]string, 0, len(model.Filters))
				for _, f := range model.Filters {
					parts = append(parts, fmt.Sprintf("%s (%d)", f.Label(), counts.Of(f)))
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, "  "))
				return nil
			})
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the whole list as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown export format %q (want json or yaml)", format)
			}
			return withSession(cmd, flags, func(s *session) error {
				return export(cmd.OutOrStdout(), format, s.svc.Items())
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(svc *app.Service, ref string) (model.Item, error) {
	ref = strings.TrimSpace(ref)
	if item, err := svc.Get(ref); err == nil {
		return item, nil
	}
	var found []model.Item
	if ref != "" {
		for _, it := range svc.Items() {
			if strings.HasPrefix(it.ID, ref) {
				found = append(found, it)
			}
		}
	}
	switch len(found) {
	case 0:
		return model.Item{}, fmt.Errorf("%w: %q", app.ErrItemNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return model.Item{}, fmt.Errorf("%w: %q", errAmbiguousID, ref)
	}
}

func printList(w io.Writer, items []model.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "There are currently no items on your to do list.")
		return err
	}
	for _, it := range items {
		mark := " "
		if it.Complete {
			mark = "x"
		}
		if _, err := fmt.Fprintf(w, "[%s] %s  %s\n", mark, it.Text, it.ID); err != nil {
			return err
		}
	}
	return nil
}

func printMarkdown(w io.Writer, f model.Filter, items []model.Item) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# To do (%s)\n\n", strings.ToLower(f.Label()))
	if len(items) == 0 {
		b.WriteString("_Nothing here yet._\n")
	}
	for _, it := range items {
		mark := " "
		if it.Complete {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, it.Text)
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(b.String())
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func export(w io.Writer, format string, items []model.Item) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
