package inference

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/creasty/defaults"
)

// Files expected inside a saved model, whether zipped or unpacked.
const (
	ConfigFile  = "config.json"
	WeightsFile = "model.weights.json"

	kerasWeightsFile = "model.weights.h5"
)

// ErrNativeKeras is returned for an unconverted Keras archive. Only the JSON export is readable.
var ErrNativeKeras = errors.New("native Keras archive: export config.json and model.weights.json with the weights converter")

// Layer types supported in config.json.
const (
	LayerLSTM    = "lstm"
	LayerDense   = "dense"
	LayerDropout = "dropout"
)

type modelConfig struct {
	Name       string            `json:"name" default:"lstm_model"`
	InputShape []int             `json:"input_shape"`
	Layers     []json.RawMessage `json:"layers"`
}

type layerHeader struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type lstmConfig struct {
	Units               int    `json:"units"`
	Activation          string `json:"activation" default:"tanh"`
	RecurrentActivation string `json:"recurrent_activation" default:"sigmoid"`
	ReturnSequences     bool   `json:"return_sequences"`
}

type denseConfig struct {
	Units      int    `json:"units"`
	Activation string `json:"activation" default:"linear"`
}

type layerWeights struct {
	Kernel          [][]float64 `json:"kernel"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel"`
	Bias            []float64   `json:"bias"`
}

type weightsFile struct {
	Layers []layerWeights `json:"layers"`
}

// LoadModel reads a saved model from path, which is either a zip archive or a directory.
func LoadModel(path string) (*Sequential, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat model: %w", err)
	}

	if info.IsDir() {
		return loadFS(os.DirFS(path))
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open model archive: %w", err)
	}
	defer zr.Close()
	return loadFS(zr)
}

func loadFS(fsys fs.FS) (*Sequential, error) {
	cfg, err := fs.ReadFile(fsys, ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigFile, err)
	}
	if isNativeKeras(fsys, cfg) {
		return nil, ErrNativeKeras
	}
	weights, err := fs.ReadFile(fsys, WeightsFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", WeightsFile, err)
	}
	return BuildModel(cfg, weights)
}

// isNativeKeras spots a Keras 3 save: h5 weights next to the config, or a config with a top-level class_name.
func isNativeKeras(fsys fs.FS, configJSON []byte) bool {
	if _, err := fs.Stat(fsys, kerasWeightsFile); err == nil {
		return true
	}
	var hdr struct {
		ClassName string `json:"class_name"`
	}
	return json.Unmarshal(configJSON, &hdr) == nil && hdr.ClassName != ""
}

// BuildModel assembles a Sequential from its config and weights documents.
func BuildModel(configJSON, weightsJSON []byte) (*Sequential, error) {
	var mc modelConfig
	if err := json.Unmarshal(configJSON, &mc); err != nil {
		return nil, fmt.Errorf("decode model config: %w", err)
	}
	if err := defaults.Set(&mc); err != nil {
		return nil, fmt.Errorf("model config defaults: %w", err)
	}
	if len(mc.InputShape) != 2 {
		return nil, fmt.Errorf("%w: input_shape must be [steps, features], got %v", ErrShape, mc.InputShape)
	}

	var wf weightsFile
	if err := json.Unmarshal(weightsJSON, &wf); err != nil {
		return nil, fmt.Errorf("decode model weights: %w", err)
	}
	if len(wf.Layers) != len(mc.Layers) {
		return nil, fmt.Errorf("weights describe %d layers, config has %d", len(wf.Layers), len(mc.Layers))
	}

	layers := make([]Layer, 0, len(mc.Layers))
	for i, raw := range mc.Layers {
		l, err := buildLayer(raw, wf.Layers[i])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}

	return NewSequential(mc.Name, mc.InputShape[0], mc.InputShape[1], layers...)
}

func buildLayer(raw json.RawMessage, w layerWeights) (Layer, error) {
	var hdr layerHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("decode layer: %w", err)
	}

	switch hdr.Type {
	case LayerLSTM:
		var c lstmConfig
		if err := decodeLayer(raw, &c); err != nil {
			return nil, err
		}
		return NewLSTM(c.Units, w.Kernel, w.RecurrentKernel, w.Bias, c.Activation, c.RecurrentActivation, c.ReturnSequences)
	case LayerDense:
		var c denseConfig
		if err := decodeLayer(raw, &c); err != nil {
			return nil, err
		}
		d, err := NewDense(w.Kernel, w.Bias, c.Activation)
		if err != nil {
			return nil, err
		}
		if _, units := d.kernel.Dims(); c.Units != 0 && units != c.Units {
			return nil, fmt.Errorf("dense: %w: kernel has %d units, config says %d", ErrShape, units, c.Units)
		}
		return d, nil
	case LayerDropout:
		return Dropout{}, nil
	default:
		return nil, fmt.Errorf("unsupported layer type %q", hdr.Type)
	}
}

func decodeLayer(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode layer config: %w", err)
	}
	if err := defaults.Set(dst); err != nil {
		return fmt.Errorf("layer defaults: %w", err)
	}
	return nil
}
