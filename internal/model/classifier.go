package model

import (
	"errors"
	"fmt"
	"math"
)

// Predictor runs one forward pass and returns the raw output vector.
type Predictor interface {
	Predict(input []float32) ([]float32, error)
}

// Classifier maps a model's output vector onto the ordered label set.
type Classifier struct {
	predictor Predictor
	meta      Metadata
}

func NewClassifier(p Predictor, meta Metadata) *Classifier {
	return &Classifier{predictor: p, meta: meta}
}

func (c *Classifier) Metadata() Metadata {
	return c.meta
}

// Classify runs the tensor through the model and picks the highest-scoring label.
func (c *Classifier) Classify(tensor []float32) (*Classification, error) {
	if want := c.meta.InputSize(); len(tensor) != want {
		return nil, &InferenceError{Err: fmt.Errorf("expected %d input values, got %d", want, len(tensor))}
	}

	output, err := c.predictor.Predict(tensor)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	if len(output) != len(c.meta.Classes) {
		return nil, &InferenceError{Err: fmt.Errorf("model returned %d scores for %d classes", len(output), len(c.meta.Classes))}
	}

	probs := output
	if c.meta.ApplySoftmax {
		probs = Softmax(output)
	}

	idx := ArgMax(probs)
	if idx < 0 {
		return nil, &InferenceError{Err: errors.New("model returned no usable scores")}
	}

	predictions := make(map[string]float32, len(probs))
	for i, p := range probs {
		predictions[c.meta.Classes[i]] = p
	}

	return &Classification{
		Class:       c.meta.Classes[idx],
		Confidence:  probs[idx],
		Predictions: predictions,
	}, nil
}

// Close releases the underlying predictor if it holds resources.
func (c *Classifier) Close() {
	if closer, ok := c.predictor.(interface{ Close() }); ok {
		closer.Close()
	}
}

// ArgMax returns the index of the largest value. Ties keep the first index
// and NaN never wins. It returns -1 when no value qualifies.
func ArgMax(values []float32) int {
	maxIdx := -1
	var maxVal float32
	for i, v := range values {
		if math.IsNaN(float64(v)) {
			continue
		}
		if maxIdx < 0 || v > maxVal {
			maxIdx = i
			maxVal = v
		}
	}
	return maxIdx
}

// Softmax turns logits into probabilities.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
