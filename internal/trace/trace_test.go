package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func readRecords(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open trace: %v", err)
	}
	defer f.Close()

	var out []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestWriterWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.ndjson")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	w.Write(Record{Frame: 3, Motion: 0, Probability: 0.9, Fused: 0.45, DelayMS: 25})
	w.Write(Record{Frame: 6, Motion: 1, Probability: 0.9, Fused: 0.95, DelayMS: 80, Highlight: true})
	if w.Written() != 2 {
		t.Errorf("expected 2 records written, got %d", w.Written())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	recs := readRecords(t, path)
	if len(recs) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(recs))
	}

	second := recs[1]
	if second["frame"] != float64(6) || second["delay_ms"] != float64(80) || second["highlight"] != true {
		t.Errorf("unexpected second record %v", second)
	}
	if _, ok := second["time"].(string); !ok {
		t.Error("expected a timestamp on every record")
	}
	if _, ok := second["level"]; ok {
		t.Error("trace records should not carry a log level")
	}
	for _, key := range []string{"mean", "std", "edges", "motion", "probability", "fused"} {
		if _, ok := recs[0][key]; !ok {
			t.Errorf("record is missing %q", key)
		}
	}
}

func TestDisabledWriterIsNoOp(t *testing.T) {
	w, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Write(Record{Frame: 1}); err != nil {
		t.Errorf("Write on disabled writer returned %v", err)
	}
	if w.Written() != 0 {
		t.Errorf("disabled writer counted %d records", w.Written())
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close on disabled writer returned %v", err)
	}

	var nilWriter *Writer
	if err := nilWriter.Write(Record{}); err != nil || nilWriter.Close() != nil {
		t.Error("nil writer should be a no-op")
	}
}

func TestCloseTwice(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "trace.ndjson"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := w.Write(Record{Frame: 1}); err != nil {
		t.Errorf("Write after Close returned %v", err)
	}
}

func TestWriterIgnoresGlobalLevel(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := filepath.Join(t.TempDir(), "trace.ndjson")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Write(Record{Frame: 9, Fused: 0.7, DelayMS: 80, Highlight: true}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	recs := readRecords(t, path)
	if len(recs) != 1 || recs[0]["frame"] != float64(9) {
		t.Errorf("expected the record despite a quiet global level, got %v", recs)
	}
}
