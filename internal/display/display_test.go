package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tahmid/pneumoscan/internal/history"
	"github.com/tahmid/pneumoscan/pkg/models"
)

func TestDiseaseLabel(t *testing.T) {
	tests := []struct {
		disease string
		want    string
	}{
		{"Pneumonia", "Pneumonia Detected"},
		{"Normal", "No Pneumonia Detected"},
		{"Tuberculosis", "Tuberculosis"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DiseaseLabel(tt.disease); got != tt.want {
			t.Errorf("DiseaseLabel(%q) = %q, want %q", tt.disease, got, tt.want)
		}
	}
}

func TestConfidenceBar(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		width      int
		want       string
	}{
		{
			name:       "87.5 over 40 rounds to 35 filled",
			confidence: 87.5,
			width:      40,
			want:       "[" + strings.Repeat("#", 35) + strings.Repeat("-", 5) + "]",
		},
		{
			name:       "zero confidence",
			confidence: 0,
			width:      10,
			want:       "[----------]",
		},
		{
			name:       "full confidence",
			confidence: 100,
			width:      10,
			want:       "[##########]",
		},
		{
			name:       "over 100 clamps",
			confidence: 250,
			width:      10,
			want:       "[##########]",
		},
		{
			name:       "negative clamps",
			confidence: -5,
			width:      10,
			want:       "[----------]",
		},
		{
			name:       "zero width",
			confidence: 50,
			width:      0,
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfidenceBar(tt.confidence, tt.width); got != tt.want {
				t.Errorf("ConfidenceBar(%v, %d) = %q, want %q", tt.confidence, tt.width, got, tt.want)
			}
		})
	}
}

func TestRenderer_Result(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Result(&models.PredictionResult{
		Disease:    "Pneumonia",
		Confidence: 87.5,
		Timestamp:  models.At(time.Date(2025, 7, 9, 14, 30, 0, 0, time.Local)),
		ImageURL:   "https://cdn.example.com/scan.png",
	})

	out := buf.String()
	for _, want := range []string{
		"Pneumonia Detected",
		"87.50%",
		"July 9, 2025 14:30",
		"https://cdn.example.com/scan.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Result() output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_ResultOmitsEmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Result(&models.PredictionResult{
		Disease:    "Normal",
		Confidence: 95,
	})

	out := buf.String()
	if strings.Contains(out, "Analyzed:") {
		t.Errorf("Result() printed a zero timestamp:\n%s", out)
	}
	if strings.Contains(out, "Image:") {
		t.Errorf("Result() printed an empty image URL:\n%s", out)
	}
}

func TestRenderer_HistoryEmptyState(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).History(nil)

	want := "No history yet.\nUpload a scan to get started.\n"
	if got := buf.String(); got != want {
		t.Errorf("History(nil) = %q, want %q", got, want)
	}
}

func TestRenderer_HistoryNumbersAcrossGroups(t *testing.T) {
	groups := history.GroupByDate([]models.HistoryEntry{
		{
			Disease:    "Pneumonia",
			Confidence: 87.5,
			Timestamp:  models.At(time.Date(2025, 7, 9, 14, 30, 0, 0, time.Local)),
		},
		{
			Disease:    "Normal",
			Confidence: 96.2,
			Timestamp:  models.At(time.Date(2025, 7, 8, 9, 0, 0, 0, time.Local)),
		},
	})

	var buf bytes.Buffer
	New(&buf).History(groups)

	out := buf.String()
	for _, want := range []string{
		"July 9, 2025",
		"July 8, 2025",
		" 1. 14:30  Pneumonia (87.5%)",
		" 2. 09:00  Normal (96.2%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("History() output missing %q:\n%s", want, out)
		}
	}

	if strings.Index(out, "July 9") > strings.Index(out, "July 8") {
		t.Errorf("History() groups not date-descending:\n%s", out)
	}
}

func TestRenderer_User(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).User(&models.User{Username: "amina", Email: "amina@example.com"})

	want := "Logged in as amina <amina@example.com>\n"
	if got := buf.String(); got != want {
		t.Errorf("User() = %q, want %q", got, want)
	}
}
