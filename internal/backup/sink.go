package backup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/pipeline"
	"github.com/hoplog/brewharvest/internal/storage"
)

// Sink writes per-region CSV backups. The primary provider is the
// recovery path and its failure is the caller's to handle; the optional
// mirror is best-effort and its failure is only logged.
type Sink struct {
	primary storage.Provider
	mirror  storage.Provider
	logger  *zap.Logger
}

// NewSink constructs a Sink. mirror may be nil.
func NewSink(primary storage.Provider, mirror storage.Provider, logger *zap.Logger) (*Sink, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary storage provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{primary: primary, mirror: mirror, logger: logger}, nil
}

// WriteRegion serializes records and saves them under the region's backup
// file name, overwriting any previous run's file. It returns the primary
// destination URI.
func (s *Sink) WriteRegion(ctx context.Context, regionName string, records []pipeline.BeerRecord) (string, error) {
	data, err := EncodeCSV(records)
	if err != nil {
		return "", fmt.Errorf("encode backup for %s: %w", regionName, err)
	}

	name := FileName(regionName)
	uri, err := s.primary.Save(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("save backup %s: %w", name, err)
	}

	if s.mirror != nil {
		if mirrorURI, err := s.mirror.Save(ctx, name, data); err != nil {
			s.logger.Warn("backup mirror failed",
				zap.String("object", name),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("backup mirrored",
				zap.String("object", name),
				zap.String("uri", mirrorURI),
			)
		}
	}

	return uri, nil
}
