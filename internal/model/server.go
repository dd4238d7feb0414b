package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

type LoadOptions struct {
	ModelSource    string
	MetadataSource string
	// SharedLibraryPath points at libonnxruntime; empty uses the platform default.
	SharedLibraryPath string
	HTTPClient        *http.Client
}

// Server owns an ONNX Runtime session with pre-allocated tensors.
// Runs are serialised because the tensors are shared.
type Server struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

var envMu sync.Mutex

// Load fetches metadata and model bytes from a local path or URL and opens a session.
func Load(ctx context.Context, opts LoadOptions) (*Server, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	metadata, err := LoadMetadata(ctx, client, opts.MetadataSource)
	if err != nil {
		return nil, err
	}

	modelData, err := readSource(ctx, client, opts.ModelSource)
	if err != nil {
		return nil, &LoadError{Source: opts.ModelSource, Err: err}
	}
	if len(modelData) == 0 {
		return nil, &LoadError{Source: opts.ModelSource, Err: errors.New("model artifact is empty")}
	}

	server, err := newServer(modelData, metadata, opts.SharedLibraryPath)
	if err != nil {
		return nil, &LoadError{Source: opts.ModelSource, Err: err}
	}
	return server, nil
}

func newServer(modelData []byte, metadata Metadata, libPath string) (*Server, error) {
	envMu.Lock()
	defer envMu.Unlock()

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSessionWithONNXData(modelData,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict copies input into the session, runs it and returns a copy of the output.
func (s *Server) Predict(inputData []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := s.inputTensor.GetData()
	if len(inputData) != len(in) {
		return nil, fmt.Errorf("expected %d input values, got %d", len(in), len(inputData))
	}
	copy(in, inputData)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}

	out := s.outputTensor.GetData()
	result := make([]float32, len(out))
	copy(result, out)
	return result, nil
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}

	envMu.Lock()
	ort.DestroyEnvironment()
	envMu.Unlock()
}
