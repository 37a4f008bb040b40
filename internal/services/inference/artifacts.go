package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ForecastAPI/internal/domain/models"
	domsvc "ForecastAPI/internal/domain/service"
	applogger "ForecastAPI/pkg/logger"
)

// Backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// ErrNotLoaded is reported when the artifact set is incomplete.
var ErrNotLoaded = errors.New("model artifacts not loaded")

// ArtifactConfig names where each artifact lives.
type ArtifactConfig struct {
	Backend          string
	ModelPath        string
	InputScalerPath  string
	OutputScalerPath string
	Remote           RemoteConfig
}

// Artifacts is the model plus its scaler pair, loaded once at startup and read-only afterwards.
// When any piece fails to load, Err describes why and the service runs degraded.
type Artifacts struct {
	Backend      string
	Model        domsvc.Model
	InputScaler  domsvc.Scaler
	OutputScaler domsvc.Scaler
	Err          error
}

// Ready reports whether predictions can be served.
func (a *Artifacts) Ready() bool {
	return a != nil && a.Err == nil && a.Model != nil && a.InputScaler != nil && a.OutputScaler != nil
}

// Detail describes why the artifacts are not ready.
func (a *Artifacts) Detail() string {
	switch {
	case a == nil:
		return ErrNotLoaded.Error()
	case a.Err != nil:
		return a.Err.Error()
	case !a.Ready():
		return ErrNotLoaded.Error()
	}
	return ""
}

// shaped is implemented by in-process models.
type shaped interface {
	InputShape() (int, int)
	Outputs() int
}

// LoadArtifacts never fails: problems are recorded on the returned value.
func LoadArtifacts(ctx context.Context, cfg ArtifactConfig, l *applogger.Logger) *Artifacts {
	start := time.Now()
	a := &Artifacts{Backend: cfg.Backend}
	if a.Backend == "" {
		a.Backend = BackendLocal
	}

	a.Err = a.load(ctx, cfg)
	if a.Err != nil {
		l.Error("model artifacts unavailable, serving degraded",
			applogger.String("backend", a.Backend),
			applogger.String("model_path", cfg.ModelPath),
			applogger.Error(a.Err),
		)
		return a
	}

	l.Info("model artifacts loaded",
		applogger.String("backend", a.Backend),
		applogger.String("model", a.Model.Name()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return a
}

func (a *Artifacts) load(ctx context.Context, cfg ArtifactConfig) error {
	in, err := LoadScaler(cfg.InputScalerPath)
	if err != nil {
		return fmt.Errorf("input scaler %s: %w", cfg.InputScalerPath, err)
	}
	out, err := LoadScaler(cfg.OutputScalerPath)
	if err != nil {
		return fmt.Errorf("output scaler %s: %w", cfg.OutputScalerPath, err)
	}

	var model domsvc.Model
	switch a.Backend {
	case BackendLocal:
		m, err := LoadModel(cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("model %s: %w", cfg.ModelPath, err)
		}
		model = m
	case BackendRemote:
		m, err := NewRemoteModel(cfg.Remote)
		if err != nil {
			return err
		}
		if err := m.Status(ctx); err != nil {
			return err
		}
		model = m
	default:
		return fmt.Errorf("unknown model backend %q", a.Backend)
	}

	if err := checkCompatible(model, in, out); err != nil {
		return err
	}

	a.Model, a.InputScaler, a.OutputScaler = model, in, out
	return nil
}

func checkCompatible(model domsvc.Model, in, out domsvc.Scaler) error {
	s, ok := model.(shaped)
	if !ok {
		return nil
	}
	steps, f := s.InputShape()
	if steps != models.WindowSize {
		return fmt.Errorf("model expects %d steps, service sends %d", steps, models.WindowSize)
	}
	if f != in.Features() {
		return fmt.Errorf("input scaler has %d features, model expects %d", in.Features(), f)
	}
	if s.Outputs() != out.Features() {
		return fmt.Errorf("output scaler has %d features, model produces %d", out.Features(), s.Outputs())
	}
	return nil
}
