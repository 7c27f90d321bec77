package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fracturedetect/internal/model"
)

func TestRun(t *testing.T) {
	cases := []struct {
		name      string
		args      []string
		wantErr   bool
		wantCount int
	}{
		{"defaults", nil, false, 1},
		{"seeded batch", []string{"-n", "3", "-seed", "7", "hand.png"}, false, 3},
		{"always fracture", []string{"-fracture-rate", "1", "-n", "5"}, false, 5},
		{"zero reports", []string{"-n", "0"}, true, 0},
		{"bad flag", []string{"-bogus"}, true, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(tc.args, &out)
			if (err != nil) != tc.wantErr {
				t.Fatalf("run(%v) error = %v, wantErr %v", tc.args, err, tc.wantErr)
			}
			if got := len(decodeReports(t, &out)); got != tc.wantCount {
				t.Errorf("decoded %d reports, want %d", got, tc.wantCount)
			}
		})
	}
}

func TestRunOutput(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-n", "4", "-fracture-rate", "1", "-seed", "3"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "\n    \"status\"") {
		t.Errorf("expected four-space indented JSON, got:\n%s", out.String())
	}

	for i, r := range decodeReports(t, &out) {
		if err := r.Validate(); err != nil {
			t.Errorf("report %d invalid: %v", i, err)
		}
		if !r.Detected() || r.BoundingBox == nil {
			t.Errorf("report %d: expected a fracture with a box, got %+v", i, r)
		}
	}
}

func TestRunSeedIsReproducible(t *testing.T) {
	var a, b bytes.Buffer
	args := []string{"-n", "5", "-seed", "42"}
	if err := run(args, &a); err != nil {
		t.Fatal(err)
	}
	if err := run(args, &b); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Errorf("same seed produced different output:\n%s\nvs\n%s", a.String(), b.String())
	}
}

func decodeReports(t *testing.T, r io.Reader) []model.DiagnosticReport {
	t.Helper()
	var reports []model.DiagnosticReport
	dec := json.NewDecoder(r)
	for {
		var report model.DiagnosticReport
		err := dec.Decode(&report)
		if errors.Is(err, io.EOF) {
			return reports
		}
		if err != nil {
			t.Fatalf("decoding report %d: %v", len(reports), err)
		}
		reports = append(reports, report)
	}
}
