package render

import (
	"bytes"
	"testing"
)

const sampleReport = `Date: 04/05/2025
Student Name: Ravi
Observer Name: Meera
Session Duration: 10:00 - 11:00

1. Daily Activities Overview
* Explored fractions using an orange
*Curiosity:* Asked many questions

2. Learning Reflections
Not enough information

Name of Observer: Meera
`

func TestDocxProducesDocument(t *testing.T) {
	data, err := Docx(sampleReport)
	if err != nil {
		t.Fatalf("Docx: %v", err)
	}

	// A .docx is a zip container.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected zip container, got leading bytes %q", data[:min(4, len(data))])
	}
}

func TestDocxNeverFailsOnArbitraryText(t *testing.T) {
	for _, report := range []string{
		"",
		"just one line",
		"*** weird *** markers ***",
		"1.çok garip\n\n\n* :*:",
	} {
		if _, err := Docx(report); err != nil {
			t.Errorf("Docx(%q) returned error: %v", report, err)
		}
	}
}

func TestPDFProducesDocument(t *testing.T) {
	data, err := PDF(sampleReport)
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf header, got leading bytes %q", data[:min(4, len(data))])
	}
}
