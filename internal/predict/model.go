// Package predict estimates a symbol's next price from its recent closes,
// using an optional ONNX model and a deterministic heuristic fallback.
package predict

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model maps one scalar feature to one scalar output.
type Model interface {
	Predict(x float32) (float32, error)
	Close() error
}

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXModel runs a single-input, single-output ONNX graph with shape [1,1].
type ONNXModel struct {
	session *ort.DynamicAdvancedSession
}

// LoadONNX initializes the runtime from libPath (empty uses the library's
// default lookup) and opens the model at path. inputName and outputName are
// the graph's tensor names.
func LoadONNX(path, libPath, inputName, outputName string) (*ONNXModel, error) {
	if err := initRuntime(libPath); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	return &ONNXModel{session: session}, nil
}

// Predict runs one inference. Tensors are allocated per call so concurrent
// callers never share buffers.
func (m *ONNXModel) Predict(x float32) (float32, error) {
	shape := ort.NewShape(1, 1)
	input, err := ort.NewTensor(shape, []float32{x})
	if err != nil {
		return 0, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return 0, fmt.Errorf("creating output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	data := output.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("empty model output")
	}
	return data[0], nil
}

// Close releases the session.
func (m *ONNXModel) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Destroy()
}
