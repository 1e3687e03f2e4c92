package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/logging"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/store"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const timeLayout = "2006-01-02 15:04:05"

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the configured backend can serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			backend, err := a.newBackend(ctx, cfg)
			if err != nil {
				return err
			}
			lister, ok := backend.(provider.ModelLister)
			if !ok {
				return fmt.Errorf("backend %q cannot list models", cfg.Model.Backend)
			}
			models, err := lister.ListModels(ctx)
			if err != nil {
				return err
			}

			tw := newTable(a.out)
			tw.AppendHeader(table.Row{"", "Name", "Size", "Modified"})
			for _, m := range models {
				current := ""
				if m.Name == cfg.Model.Name {
					current = "*"
				}
				tw.AppendRow(table.Row{current, m.Name, formatSize(m.Size), formatTime(m.ModifiedAt)})
			}
			tw.Render()
			return nil
		},
	}
}

func newToolsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List built-in and MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := a.setupWith(cmd.Context(), a.errOut, nil)
			if err != nil {
				return err
			}
			defer deps.Close()

			decls := deps.Registry.List()
			if asJSON {
				return printJSON(a.out, decls)
			}

			tw := newTable(a.out)
			tw.AppendHeader(table.Row{"Name", "Approval", "Description"})
			for _, d := range decls {
				approval := ""
				if t, err := deps.Registry.Lookup(d.Name); err == nil && tool.IsMutating(t) {
					approval = "required"
				}
				tw.AppendRow(table.Row{d.Name, approval, truncate(firstLine(d.Description), 72)})
			}
			tw.Render()

			if servers := deps.MCP.Servers(); len(servers) > 0 {
				fmt.Fprintln(a.out)
				st := newTable(a.out)
				st.AppendHeader(table.Row{"MCP server", "Transport", "Tools", "Gated"})
				for _, s := range servers {
					st.AppendRow(table.Row{s.Name, s.Transport, s.Tools, s.Gated})
				}
				st.Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tool declarations as JSON")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show stored sessions, or one session's transcript and changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Store.Enabled {
				return errors.New("history is disabled (store.enabled is false)")
			}
			logger, closeLog, err := a.newLogger(cfg, a.errOut)
			if err != nil {
				return err
			}
			defer closeLog()

			st, err := store.Open(historyPath(cfg.Store.Path), logging.Component(logger, "store"))
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 0 {
				return a.listSessions(cmd.Context(), st)
			}
			return a.showSession(cmd.Context(), st, args[0])
		},
	}
}

func (a *app) listSessions(ctx context.Context, st *store.Store) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	tw.AppendHeader(table.Row{"Session", "Turns", "Started", "Updated"})
	for _, s := range sessions {
		tw.AppendRow(table.Row{s.ID, s.Turns, formatTime(s.StartedAt), formatTime(s.UpdatedAt)})
	}
	tw.Render()
	return nil
}

func (a *app) showSession(ctx context.Context, st *store.Store, id string) error {
	records, err := st.Records(ctx, id)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	tw.AppendHeader(table.Row{"Time", "Role", "Text"})
	for _, r := range records {
		tw.AppendRow(table.Row{formatTime(r.Timestamp), r.Role, truncate(r.Text, 96)})
	}
	tw.Render()

	changes, err := st.Changes(ctx, id)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	fmt.Fprintln(a.out)
	ct := newTable(a.out)
	ct.AppendHeader(table.Row{"Change", "Tool", "Target", "Status", "Applied", "Resolved"})
	for _, c := range changes {
		ct.AppendRow(table.Row{c.ChangeID, c.Tool, c.Target, c.Status, c.Success, formatTime(c.ResolvedAt)})
	}
	ct.Render()
	return nil
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Model.APIKey != "" {
				cfg.Model.APIKey = "********"
			}

			// Round-trip through JSON so keys keep their snake_case names.
			raw, err := json.Marshal(cfg)
			if err != nil {
				return err
			}
			var doc map[string]any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func printJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
