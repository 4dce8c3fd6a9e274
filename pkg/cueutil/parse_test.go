// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Config: close({
	name?:  string & !=""
	limit?: int & >=1
	tags?: [string]: string
})
`

func TestDecodeMap(t *testing.T) {
	t.Parallel()

	got, err := DecodeMap([]byte(testSchema), []byte(`name: "vos"
limit: 3
tags: a: "b"`), "#Config", WithFilename("in.cue"))
	if err != nil {
		t.Fatalf("DecodeMap() error: %v", err)
	}
	if got["name"] != "vos" {
		t.Errorf("name = %v", got["name"])
	}
	tags, ok := got["tags"].(map[string]any)
	if !ok || tags["a"] != "b" {
		t.Errorf("tags = %#v", got["tags"])
	}
}

func TestDecodeMap_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantSub []string
	}{
		{"syntax", `name: `, nil, []string{"in.cue"}},
		{"out of range", `limit: 0`, nil, []string{"in.cue", "limit"}},
		{"unknown field", `bogus: 1`, nil, []string{"in.cue", "bogus"}},
		{"too large", `name: "vosemu"`, []Option{WithMaxFileSize(4)}, []string{"exceeds maximum 4 bytes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithFilename("in.cue")}, tt.opts...)
			_, err := DecodeMap([]byte(testSchema), []byte(tt.data), "#Config", opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, sub := range tt.wantSub {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q should contain %q", err, sub)
				}
			}
		})
	}
}

func TestDecodeMap_UnknownDefinition(t *testing.T) {
	t.Parallel()

	_, err := DecodeMap([]byte(testSchema), []byte(`name: "x"`), "#Missing")
	if err == nil || !strings.Contains(err.Error(), "#Missing") {
		t.Errorf("error = %v, want missing definition", err)
	}
}
