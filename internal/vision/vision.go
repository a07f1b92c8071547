// SPDX-License-Identifier: Apache-2.0

// Package vision defines the visual-analysis boundary: structured screenshot
// analysis results and the analyzer capability that produces them.
package vision

import (
	"context"
	"fmt"
	"strings"
)

// Coordinates is a point on the screen.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BoundingBox is a rectangular screen area, typically identified by a visual
// model. Max coordinates are exclusive of min: XMax > XMin, YMax > YMin.
type BoundingBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Validate checks that the box is non-negative and correctly ordered.
func (b BoundingBox) Validate() error {
	if b.XMin < 0 || b.YMin < 0 || b.XMax < 0 || b.YMax < 0 {
		return fmt.Errorf("bounding box coordinates must be non-negative")
	}
	if b.XMax <= b.XMin {
		return fmt.Errorf("x_max must be strictly greater than x_min")
	}
	if b.YMax <= b.YMin {
		return fmt.Errorf("y_max must be strictly greater than y_min")
	}
	return nil
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Coordinates {
	return Coordinates{
		X: b.XMin + (b.XMax-b.XMin)/2,
		Y: b.YMin + (b.YMax-b.YMin)/2,
	}
}

// BoxFromList creates a BoundingBox from [x_min, y_min, x_max, y_max].
func BoxFromList(coords []int) (BoundingBox, error) {
	if len(coords) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box list must contain exactly four values, got %d", len(coords))
	}
	box := BoundingBox{XMin: coords[0], YMin: coords[1], XMax: coords[2], YMax: coords[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Element is one on-screen element identified by an analyzer.
type Element struct {
	Label string       `json:"label"`
	Text  string       `json:"text,omitempty"`
	Box   *BoundingBox `json:"box,omitempty"`
}

// Analysis is the structured result of analyzing one screenshot.
type Analysis struct {
	Summary  string                 `json:"summary,omitempty"`
	Elements []Element              `json:"elements"`
	Raw      map[string]interface{} `json:"-"`
}

// Locate finds the first element whose label or text contains the given
// description (case-insensitive) and has a bounding box, returning the box
// center. Anything smarter than containment matching belongs in the analyzer
// itself, not here.
func (a *Analysis) Locate(description string) (Coordinates, bool) {
	if a == nil || description == "" {
		return Coordinates{}, false
	}
	needle := strings.ToLower(description)
	for _, el := range a.Elements {
		if el.Box == nil {
			continue
		}
		if strings.Contains(strings.ToLower(el.Label), needle) ||
			strings.Contains(strings.ToLower(el.Text), needle) {
			return el.Box.Center(), true
		}
	}
	return Coordinates{}, false
}

// Analyzer answers questions about screenshots.
type Analyzer interface {
	// Analyze inspects a PNG image and returns a structured description of
	// what the query asked about.
	Analyze(ctx context.Context, image []byte, query string) (*Analysis, error)
}
