// Package display renders results and history listings as plain
// terminal text.
package display

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tahmid/pneumoscan/internal/history"
	"github.com/tahmid/pneumoscan/pkg/models"
)

const barWidth = 40

type Renderer struct {
	out io.Writer
}

func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// DiseaseLabel maps the open-ended disease string onto display text.
// "Pneumonia" and "Normal" are the known classes; anything else is
// shown verbatim.
func DiseaseLabel(disease string) string {
	switch disease {
	case "Pneumonia":
		return "Pneumonia Detected"
	case "Normal":
		return "No Pneumonia Detected"
	default:
		return disease
	}
}

// ConfidenceBar renders a bar whose filled width is proportional to
// the confidence percentage.
func ConfidenceBar(confidence float64, width int) string {
	if width <= 0 {
		return ""
	}
	clamped := math.Min(math.Max(confidence, 0), 100)
	filled := int(math.Round(clamped / 100 * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func (r *Renderer) Result(result *models.PredictionResult) {
	fmt.Fprintln(r.out, "Analysis Result")
	fmt.Fprintf(r.out, "  Prediction: %s\n", DiseaseLabel(result.Disease))
	fmt.Fprintf(r.out, "  Confidence: %.2f%%\n", result.Confidence)
	fmt.Fprintf(r.out, "  %s\n", ConfidenceBar(result.Confidence, barWidth))
	if !result.Timestamp.IsZero() {
		fmt.Fprintf(r.out, "  Analyzed:   %s\n", result.Timestamp.Local().Format("January 2, 2006 15:04"))
	}
	if result.ImageURL != "" {
		fmt.Fprintf(r.out, "  Image:      %s\n", result.ImageURL)
	}
}

// History prints the grouped sidebar. Entries are numbered across
// groups so they can be selected by index.
func (r *Renderer) History(groups history.Groups) {
	if groups.Len() == 0 {
		fmt.Fprintln(r.out, "No history yet.")
		fmt.Fprintln(r.out, "Upload a scan to get started.")
		return
	}

	n := 0
	for _, group := range groups {
		fmt.Fprintln(r.out, group.Date)
		for _, entry := range group.Entries {
			n++
			fmt.Fprintf(r.out, "  %2d. %s  %s (%.1f%%)\n",
				n,
				entry.Timestamp.Local().Format("15:04"),
				entry.Disease,
				entry.Confidence)
		}
	}
}

func (r *Renderer) User(user *models.User) {
	fmt.Fprintf(r.out, "Logged in as %s <%s>\n", user.Username, user.Email)
}
