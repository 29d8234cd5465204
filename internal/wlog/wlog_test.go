package wlog

import (
	"bytes"
	"testing"
)

func TestWriteStartupMarkerExactText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStartupMarker(&buf, 4242); err != nil {
		t.Fatalf("WriteStartupMarker: %v", err)
	}
	want := "--- daemon: starting (pid: 4242)\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
