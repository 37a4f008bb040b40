package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domsvc "ForecastAPI/internal/domain/service"
	xhttp "ForecastAPI/pkg/http"
)

// RemoteConfig points at a TensorFlow Serving compatible REST endpoint.
type RemoteConfig struct {
	URL       string
	ModelName string
	Timeout   time.Duration
}

// RemoteModel delegates the forward pass to a model server.
type RemoteModel struct {
	baseURL string
	name    string
	client  *xhttp.Client
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

func NewRemoteModel(cfg RemoteConfig) (*RemoteModel, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote model url is empty")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("remote model name is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RemoteModel{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		name:    cfg.ModelName,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}, nil
}

func (m *RemoteModel) Name() string { return "remote:" + m.name }

// Status returns nil when the server reports at least one AVAILABLE version.
func (m *RemoteModel) Status(ctx context.Context) error {
	var st modelStatusResponse
	err := m.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v1/models/%s", m.baseURL, m.name),
	}, &st)
	if err != nil {
		return fmt.Errorf("model status: %w", err)
	}
	for _, v := range st.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("model %q has no available version", m.name)
}

// Predict posts a single instance and returns its prediction vector.
func (m *RemoteModel) Predict(ctx context.Context, window [][]float64) ([]float64, error) {
	var pr predictResponse
	err := m.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/v1/models/%s:predict", m.baseURL, m.name),
		Body:   predictRequest{Instances: [][][]float64{window}},
	}, &pr)
	if err != nil {
		return nil, fmt.Errorf("post predict: %w", err)
	}
	if pr.Error != "" {
		return nil, fmt.Errorf("model server: %s", pr.Error)
	}
	if len(pr.Predictions) != 1 || len(pr.Predictions[0]) == 0 {
		return nil, fmt.Errorf("unexpected predictions shape: %d rows", len(pr.Predictions))
	}
	return pr.Predictions[0], nil
}

var _ domsvc.Model = (*RemoteModel)(nil)
