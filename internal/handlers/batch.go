// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vosemu/vosemu/internal/batch"
	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
)

const noBatchRequests = "(no batch requests)"

func (b *Builtins) batchCommands() []command {
	return []command{
		{"batch", b.submitBatch, "Submit a command line to a batch queue. Usage: batch <command_line> [-queue name] [-process_name name] [-queue_priority n] [-process_priority n] [options]"},
		{"display_batch_status", maxArgs(1, "usage: display_batch_status [queue]", b.displayBatchStatus), "Display batch requests with priorities and status. Usage: display_batch_status [queue]"},
		{"list_batch_requests", maxArgs(1, "usage: list_batch_requests [queue]", b.listBatchRequests), "List batch requests by queue. Usage: list_batch_requests [queue]"},
		{"cancel_batch_requests", b.cancelBatchRequests, "Cancel batch requests matching the given process names or globs. Usage: cancel_batch_requests <process_name(s)>"},
		{"update_batch_requests", b.updateBatchRequests, "Change priorities of matching batch requests. Usage: update_batch_requests <process_name(s)> [-queue_priority n] [-process_priority n]"},
	}
}

func (b *Builtins) submitBatch(ctx context.Context, sess *session.Session, args []string) (string, error) {
	req, err := batch.ParseSubmitArgs(args)
	if err != nil {
		return "", issue.Usagef("batch: %v", err)
	}
	receipt, err := b.Batches.Submit(ctx, req)
	if err != nil {
		return "", batchError("batch", err)
	}
	sess.AddNotice(fmt.Sprintf("batch request %s queued as %s", receipt.Job.RequestID, receipt.Job.ProcessName))
	return ok(fmt.Sprintf("queued batch request %s in queue '%s'", receipt.Job.ProcessName, receipt.Job.QueueName)), nil
}

// batchError classifies store failures: input problems are usage errors,
// anything else is I/O.
func batchError(op string, err error) error {
	if batch.IsInputError(err) {
		return issue.Usagef("%s: %v", op, err)
	}
	return issue.IO(op, err)
}

func (b *Builtins) batchRows(ctx context.Context, args []string, withStatus bool) ([][]string, error) {
	queue := ""
	if len(args) == 1 {
		queue = args[0]
	}
	entries, err := b.Batches.List(ctx, queue)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		process, queuePri, procPri := e.Name, "-", "-"
		if e.Job != nil {
			process = e.Job.ProcessName
			queuePri = strconv.Itoa(e.Job.QueuePriority)
			if e.Job.ProcessPriority != nil {
				procPri = strconv.Itoa(*e.Job.ProcessPriority)
			}
		}
		if withStatus {
			rows = append(rows, []string{e.Queue, process, queuePri, procPri, string(e.Status())})
		} else {
			rows = append(rows, []string{e.Queue, process, queuePri})
		}
	}
	return rows, nil
}

func (b *Builtins) displayBatchStatus(ctx context.Context, _ *session.Session, args []string) (string, error) {
	rows, err := b.batchRows(ctx, args, true)
	if err != nil {
		return "", issue.IO("display_batch_status", err)
	}
	if len(rows) == 0 {
		return noBatchRequests, nil
	}
	return formatTable([]string{"Queue", "Process", "QueuePri", "ProcPri", "Status"}, rows), nil
}

func (b *Builtins) listBatchRequests(ctx context.Context, _ *session.Session, args []string) (string, error) {
	rows, err := b.batchRows(ctx, args, false)
	if err != nil {
		return "", issue.IO("list_batch_requests", err)
	}
	if len(rows) == 0 {
		return noBatchRequests, nil
	}
	return formatTable([]string{"Queue", "Process", "QueuePri"}, rows), nil
}

func (b *Builtins) cancelBatchRequests(ctx context.Context, _ *session.Session, args []string) (string, error) {
	if len(args) == 0 {
		return "", issue.Usagef("usage: cancel_batch_requests <process_name(s)>")
	}
	n, err := b.Batches.Cancel(ctx, args)
	if err != nil {
		return "", issue.IO("cancel_batch_requests", err)
	}
	return ok(fmt.Sprintf("cancelled %d batch request(s)", n)), nil
}

func (b *Builtins) updateBatchRequests(ctx context.Context, _ *session.Session, args []string) (string, error) {
	if len(args) == 0 {
		return "", issue.Usagef("usage: update_batch_requests <process_name(s)> [options]")
	}
	patterns, opts, err := batch.ParseUpdateArgs(args)
	if err != nil {
		return "", issue.Usagef("update_batch_requests: %v", err)
	}
	n, err := b.Batches.Update(ctx, patterns, opts)
	if err != nil {
		return "", issue.IO("update_batch_requests", err)
	}
	return ok(fmt.Sprintf("updated %d batch request(s)", n)), nil
}
