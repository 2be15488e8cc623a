package logger

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ProgressBar renders questionnaire progress as an ASCII bar.
type ProgressBar struct {
	fraction    float64
	width       int
	enableColor bool
	prefix      string
	mu          sync.RWMutex
}

// NewProgressBar creates a progress bar width characters wide.
func NewProgressBar(width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{width: width, enableColor: enableColor}
}

// Update sets progress as a fraction in [0, 1]; values outside are clamped.
func (pb *ProgressBar) Update(fraction float64) {
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.fraction = fraction
}

// Percentage returns the progress percentage (0-100), rounded down.
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return int(pb.fraction * 100)
}

// SetPrefix sets a custom prefix for the progress bar
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Render returns e.g. "[=====     ] 50%".
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	perc := int(pb.fraction * 100)
	filled := perc * pb.width / 100

	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s%s %d%%", pb.prefix, bar, perc)

	if !pb.enableColor {
		return result
	}
	if perc < 100 {
		return color.New(color.FgCyan).Sprint(result)
	}
	return color.New(color.FgGreen).Sprint(result)
}
