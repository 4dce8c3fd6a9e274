// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		ConfigLoadFailedId,
		StateDirUnavailableId,
		UnknownCommandId,
		AmbiguousCommandId,
		EmptyCommandLineId,
		OutsideSandboxId,
		BatchRecordUnreadableId,
		ServerStartFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
	if len(Values()) != len(ids) {
		t.Errorf("Values() returned %d issues, want %d", len(Values()), len(ids))
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{StateDirUnavailableId, false, "State directory unavailable"},
		{UnknownCommandId, false, "Unknown command"},
		{AmbiguousCommandId, false, "Ambiguous command"},
		{EmptyCommandLineId, false, "Nothing to run"},
		{OutsideSandboxId, false, "outside the sandbox"},
		{BatchRecordUnreadableId, false, "Batch record unreadable"},
		{ServerStartFailedId, false, "SSH server failed"},
		{Id(9999), true, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestIssue_ExtLinksClone(t *testing.T) {
	issue := Get(UnknownCommandId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("UnknownCommand issue should carry the manual link")
	}

	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	rendered, err := Get(UnknownCommandId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "## See also") || !strings.Contains(rendered, string(vosManualLink)) {
		t.Errorf("Render() should append the see-also section, got:\n%s", rendered)
	}
}
