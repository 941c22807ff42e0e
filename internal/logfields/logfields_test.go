package logfields

import (
	"errors"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
	}{
		{"JobID", KeyJobID, "123"},
		{"JobStatus", KeyJobStatus, "in_progress"},
		{"Stage", KeyStage, "export"},
		{"Path", KeyPath, "/tmp/x.stl"},
		{"Format", KeyFormat, "obj"},
		{"Directory", KeyDirectory, "/tmp/out"},
	}

	attrs := []struct {
		key, val string
	}{
		{JobID("123").Key, JobID("123").Value.String()},
		{JobStatus("in_progress").Key, JobStatus("in_progress").Value.String()},
		{Stage("export").Key, Stage("export").Value.String()},
		{Path("/tmp/x.stl").Key, Path("/tmp/x.stl").Value.String()},
		{Format("obj").Key, Format("obj").Value.String()},
		{Directory("/tmp/out").Key, Directory("/tmp/out").Value.String()},
	}

	for i, tc := range cases {
		if attrs[i].key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, attrs[i].key)
		}
		if attrs[i].val != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, attrs[i].val)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Count(5); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := SizeBytes(42); v.Key != KeySizeBytes {
		t.Fatalf("SizeBytes key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("kernel missing"))
	if attr.Value.String() != "kernel missing" {
		t.Fatalf("expected 'kernel missing', got %s", attr.Value.String())
	}
}
