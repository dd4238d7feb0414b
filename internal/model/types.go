package model

// DefaultClasses is the label order the waste model was trained with.
// Index i is the model's output index i.
var DefaultClasses = []string{"Plastik", "Kertas", "Organik", "Logam", "Kaca"}

type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

type Metadata struct {
	InputShape   []int64  `yaml:"input_shape" json:"input_shape"`
	OutputShape  []int64  `yaml:"output_shape" json:"output_shape"`
	Classes      []string `yaml:"classes" json:"classes"`
	ImageSize    int      `yaml:"image_size" json:"image_size"`
	InputName    string   `yaml:"input_name" json:"input_name"`
	OutputName   string   `yaml:"output_name" json:"output_name"`
	ApplySoftmax bool     `yaml:"apply_softmax" json:"apply_softmax"`
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

// Classification is the outcome of one inference.
type Classification struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}
