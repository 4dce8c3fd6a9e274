// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vosemu/vosemu/internal/batch"
	"github.com/vosemu/vosemu/internal/issue"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
)

// batchListing is the YAML form of one queued record.
type batchListing struct {
	Queue  string     `yaml:"queue"`
	Name   string     `yaml:"name"`
	Status string     `yaml:"status"`
	Path   string     `yaml:"path"`
	Error  string     `yaml:"error,omitempty"`
	Job    *batch.Job `yaml:"job,omitempty"`
}

// newBatchCommand creates the `vosemu batch` command tree. Every subcommand
// works directly on the batch store under the state directory.
func newBatchCommand(app *App) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Manage persisted batch requests",
		Long: `Manage persisted batch requests.

Batch requests are stored as job records under
<state_dir>/vos_internals/batches/<queue>/. They are never executed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	batchCmd.AddCommand(
		newBatchListCommand(app),
		newBatchSubmitCommand(app),
		newBatchCancelCommand(app),
		newBatchUpdateCommand(app),
	)
	return batchCmd
}

func newBatchListCommand(app *App) *cobra.Command {
	var (
		queue  string
		output string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List batch requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != outputTable && output != outputYAML {
				return fmt.Errorf("invalid --output %q (valid: %s, %s)", output, outputTable, outputYAML)
			}
			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}
			entries, err := rt.Batches.List(cmd.Context(), queue)
			if err != nil {
				return err
			}

			if output == outputYAML {
				return writeBatchYAML(app.stdout, entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(app.stdout, SubtitleStyle.Render("No batch requests"))
				warnUnknownQueue(app.stderr, rt.Batches, queue)
				return nil
			}
			_, _ = fmt.Fprintln(app.stdout, batchTable(entries))
			for _, e := range entries {
				if e.Err != nil {
					app.renderIssue(issue.BatchRecordUnreadableId, rt.Config.UI.ColorScheme)
					break
				}
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&queue, "queue", "q", "", "only list this queue")
	listCmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, yaml)")
	return listCmd
}

// warnUnknownQueue notes on w when queue names no existing queue directory.
func warnUnknownQueue(w io.Writer, store *batch.Store, queue string) {
	if queue == "" {
		return
	}
	queues, err := store.Queues()
	if err != nil || slices.Contains(queues, queue) {
		return
	}
	known := "none"
	if len(queues) > 0 {
		known = strings.Join(queues, ", ")
	}
	_, _ = fmt.Fprintf(w, "%s queue %q does not exist (existing queues: %s)\n", WarningStyle.Render("!"), queue, known)
}

func batchTable(entries []batch.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		qpri, ppri := "-", "-"
		if e.Job != nil {
			qpri = strconv.Itoa(e.Job.QueuePriority)
			if e.Job.ProcessPriority != nil {
				ppri = strconv.Itoa(*e.Job.ProcessPriority)
			}
		}
		rows = append(rows, []string{e.Queue, e.Name, qpri, ppri, string(e.Status())})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("Queue", "Process", "QueuePri", "ProcPri", "Status").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		String()
}

func writeBatchYAML(w io.Writer, entries []batch.Entry) error {
	out := make([]batchListing, 0, len(entries))
	for _, e := range entries {
		l := batchListing{
			Queue:  e.Queue,
			Name:   e.Name,
			Status: string(e.Status()),
			Path:   e.Path,
			Job:    e.Job,
		}
		if e.Err != nil {
			l.Error = e.Err.Error()
		}
		out = append(out, l)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode batch listing: %w", err)
	}
	return enc.Close()
}

func newBatchSubmitCommand(app *App) *cobra.Command {
	var (
		req             batch.SubmitRequest
		queuePriority   int
		processPriority int
	)
	submitCmd := &cobra.Command{
		Use:   "submit [flags] <command line...>",
		Short: "Persist a new batch request",
		Example: `  vosemu batch submit display_line hello
  vosemu batch submit --queue nightly --queue-priority 2 "Sales>report.cm"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.CommandLine = strings.Join(args, " ")
			if cmd.Flags().Changed("queue-priority") {
				req.QueuePriority = &queuePriority
			}
			if cmd.Flags().Changed("process-priority") {
				req.ProcessPriority = &processPriority
			}

			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}
			receipt, err := rt.Batches.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.stdout, "%s Submitted %s to queue %s\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(receipt.Job.ProcessName), receipt.Job.QueueName)
			_, _ = fmt.Fprintf(app.stdout, "  request id: %s\n  record: %s\n", receipt.Job.RequestID, receipt.Path)
			return nil
		},
	}
	f := submitCmd.Flags()
	f.SetInterspersed(false)
	f.StringVar(&req.QueueName, "queue", "", "queue name (default from batch.default_queue)")
	f.StringVar(&req.ProcessName, "process-name", "", "process name (default derived from the command line)")
	f.IntVar(&queuePriority, "queue-priority", 0, "queue priority")
	f.IntVar(&processPriority, "process-priority", 0, "process priority")
	f.BoolVar(&req.Privileged, "privileged", false, "request a privileged process")
	f.BoolVar(&req.NoRestart, "no-restart", false, "do not restart after a system failure")
	f.BoolVar(&req.Notify, "notify", false, "notify on completion")
	f.StringVar(&req.OutputPath, "output-path", "", "output file path")
	f.StringVar(&req.DeferUntil, "defer-until", "", "earliest start time")
	f.StringVar(&req.CPULimit, "cpu-limit", "", "CPU time limit")
	return submitCmd
}

func newBatchCancelCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <pattern...>",
		Short: "Delete batch requests whose process name matches a pattern",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}
			n, err := rt.Batches.Cancel(cmd.Context(), args)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.stdout, "Cancelled %d batch request(s)\n", n)
			return nil
		},
	}
}

func newBatchUpdateCommand(app *App) *cobra.Command {
	var queuePriority, processPriority int
	updateCmd := &cobra.Command{
		Use:   "update <pattern...>",
		Short: "Change the priorities of matching batch requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts batch.UpdateOptions
			if cmd.Flags().Changed("queue-priority") {
				opts.QueuePriority = &queuePriority
			}
			if cmd.Flags().Changed("process-priority") {
				opts.ProcessPriority = &processPriority
			}
			if opts.QueuePriority == nil && opts.ProcessPriority == nil {
				return fmt.Errorf("%w: pass --queue-priority or --process-priority", batch.ErrNoPriority)
			}

			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}
			n, err := rt.Batches.Update(cmd.Context(), args, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.stdout, "Updated %d batch request(s)\n", n)
			return nil
		},
	}
	updateCmd.Flags().IntVar(&queuePriority, "queue-priority", 0, "new queue priority")
	updateCmd.Flags().IntVar(&processPriority, "process-priority", 0, "new process priority")
	return updateCmd
}
