package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"EnergyForecast/internal/domain/service"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// InitONNXRuntime loads the shared library once per process.
func InitONNXRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			onnxruntime.SetSharedLibraryPath(libraryPath)
		}
		if !onnxruntime.IsInitialized() {
			ortErr = onnxruntime.InitializeEnvironment()
		}
	})
	if ortErr != nil {
		return fmt.Errorf("initialize onnx runtime: %w", ortErr)
	}
	return nil
}

var errSessionClosed = errors.New("onnx session closed")

// onnxSession guards the runtime session so Close cannot free it under a running Run.
type onnxSession struct {
	mu      sync.RWMutex
	session *onnxruntime.DynamicAdvancedSession
}

func openSession(path, input, output string) (*onnxSession, error) {
	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	s, err := onnxruntime.NewDynamicAdvancedSession(path, []string{input}, []string{output}, options)
	if err != nil {
		return nil, fmt.Errorf("load onnx model %s: %w", path, err)
	}
	return &onnxSession{session: s}, nil
}

func (s *onnxSession) closed() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session == nil
}

func (s *onnxSession) run(inputs, outputs []onnxruntime.Value) error {
	if s == nil {
		return errSessionClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return errSessionClosed
	}
	return s.session.Run(inputs, outputs)
}

func (s *onnxSession) destroy() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

func inputTensor(features []float64) (*onnxruntime.Tensor[float32], error) {
	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}
	return onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(data))), data)
}

// ONNXRegressor runs an exported regressor graph with a [1, 6] float input.
type ONNXRegressor struct {
	s *onnxSession
}

func NewONNXRegressor(path, input, output string) (*ONNXRegressor, error) {
	s, err := openSession(path, input, output)
	if err != nil {
		return nil, err
	}
	return &ONNXRegressor{s: s}, nil
}

func (r *ONNXRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.s.closed() {
		return 0, errSessionClosed
	}
	if len(features) != service.FeatureCount {
		return 0, fmt.Errorf("expected %d features, got %d", service.FeatureCount, len(features))
	}

	in, err := inputTensor(features)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	out := make([]float32, 1)
	outTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 1), out)
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer outTensor.Destroy()

	if err := r.s.run([]onnxruntime.Value{in}, []onnxruntime.Value{outTensor}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	return float64(out[0]), nil
}

func (r *ONNXRegressor) Close() error { return r.s.destroy() }

// ONNXAnomalyDetector runs an exported isolation graph whose label output is int64.
type ONNXAnomalyDetector struct {
	s *onnxSession
}

func NewONNXAnomalyDetector(path, input, output string) (*ONNXAnomalyDetector, error) {
	s, err := openSession(path, input, output)
	if err != nil {
		return nil, err
	}
	return &ONNXAnomalyDetector{s: s}, nil
}

func (d *ONNXAnomalyDetector) Label(ctx context.Context, units float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if d.s.closed() {
		return 0, errSessionClosed
	}

	in, err := inputTensor([]float64{units})
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	out := make([]int64, 1)
	outTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1), out)
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer outTensor.Destroy()

	if err := d.s.run([]onnxruntime.Value{in}, []onnxruntime.Value{outTensor}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	return int(out[0]), nil
}

func (d *ONNXAnomalyDetector) Close() error { return d.s.destroy() }
