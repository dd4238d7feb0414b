package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseMetadata decodes model metadata (JSON or YAML), fills defaults and
// validates that the shapes describe a square RGB input and one score per class.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	// JSON exported by training scripts is often tab-indented, which YAML rejects.
	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(m.Classes) == 0 {
		m.Classes = append([]string(nil), DefaultClasses...)
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if len(m.InputShape) == 0 {
		if m.ImageSize <= 0 {
			return Metadata{}, errors.New("metadata needs input_shape or image_size")
		}
		size := int64(m.ImageSize)
		m.InputShape = []int64{1, size, size, 3}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}

	layout, err := m.layout()
	if err != nil {
		return Metadata{}, err
	}
	h, w := m.spatial(layout)
	if h != w {
		return Metadata{}, fmt.Errorf("input must be square, got %dx%d", h, w)
	}
	if m.ImageSize == 0 {
		m.ImageSize = int(h)
	}
	if int64(m.ImageSize) != h {
		return Metadata{}, fmt.Errorf("image_size %d does not match input shape %v", m.ImageSize, m.InputShape)
	}
	for _, d := range m.OutputShape {
		if d <= 0 {
			return Metadata{}, fmt.Errorf("invalid output shape %v", m.OutputShape)
		}
	}
	if n := m.OutputSize(); n != len(m.Classes) {
		return Metadata{}, fmt.Errorf("output shape %v yields %d scores for %d classes", m.OutputShape, n, len(m.Classes))
	}

	return m, nil
}

// Layout reports where the channel dimension sits in the input shape.
func (m Metadata) Layout() Layout {
	l, _ := m.layout()
	return l
}

func (m Metadata) layout() (Layout, error) {
	if len(m.InputShape) != 4 {
		return "", fmt.Errorf("input shape must have 4 dimensions, got %v", m.InputShape)
	}
	for _, d := range m.InputShape {
		if d <= 0 {
			return "", fmt.Errorf("invalid input shape %v", m.InputShape)
		}
	}
	switch {
	case m.InputShape[3] == 3:
		return LayoutNHWC, nil
	case m.InputShape[1] == 3:
		return LayoutNCHW, nil
	}
	return "", fmt.Errorf("input shape %v has no 3-channel dimension", m.InputShape)
}

func (m Metadata) spatial(l Layout) (int64, int64) {
	if l == LayoutNCHW {
		return m.InputShape[2], m.InputShape[3]
	}
	return m.InputShape[1], m.InputShape[2]
}

// InputSize is the number of float32 values the model input takes.
func (m Metadata) InputSize() int {
	return flattened(m.InputShape)
}

// OutputSize is the number of float32 values the model emits.
func (m Metadata) OutputSize() int {
	return flattened(m.OutputShape)
}

func flattened(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
