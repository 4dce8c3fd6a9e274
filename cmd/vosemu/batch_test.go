// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/vosemu/vosemu/internal/batch"
)

func testEntries() []batch.Entry {
	pri := 7
	return []batch.Entry{
		{Queue: "nightly", Name: "report", Path: "/q/nightly/report.job", Job: &batch.Job{
			ProcessName: "report", QueueName: "nightly", CommandLine: "report.cm", QueuePriority: 2, ProcessPriority: &pri,
		}},
		{Queue: "normal", Name: "broken", Path: "/q/normal/broken.job", Err: errors.New("decode failed")},
	}
}

func TestBatchTable(t *testing.T) {
	t.Parallel()

	out := batchTable(testEntries())
	for _, want := range []string{"Queue", "ProcPri", "nightly", "report", "7", "pending", "broken", "unreadable"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteBatchYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeBatchYAML(&buf, testEntries()); err != nil {
		t.Fatalf("writeBatchYAML() error: %v", err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0]["status"] != "pending" || got[1]["status"] != "unreadable" {
		t.Errorf("statuses = %v, %v", got[0]["status"], got[1]["status"])
	}
	if got[1]["error"] != "decode failed" {
		t.Errorf("error = %v", got[1]["error"])
	}
	job, ok := got[0]["job"].(map[string]any)
	if !ok || job["process_priority"] != 7 {
		t.Errorf("job = %v", got[0]["job"])
	}
}

func TestBatchUpdate_RequiresPriority(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil, "")
	err := app.execute(t, "batch", "update", "report")
	if !errors.Is(err, batch.ErrNoPriority) {
		t.Errorf("error = %v, want ErrNoPriority", err)
	}
}
