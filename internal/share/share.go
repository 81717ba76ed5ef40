// Package share hands a unit off to an export surface: a title and a
// playable URL, fire and forget. There is no response contract.
package share

import (
	"log/slog"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

// Sink receives share hand-offs. Implementations must not block.
type Sink interface {
	Share(title, url string)
}

// Service resolves a unit into a shareable title and URL and hands it to
// the sink.
type Service struct {
	sink   Sink
	logger *slog.Logger
}

func NewService(sink Sink, logger *slog.Logger) *Service {
	return &Service{sink: sink, logger: logger}
}

// ShareUnit hands the unit off. Fails only when the unit has nothing
// playable to share.
func (s *Service) ShareUnit(unit *domain.PlaybackUnit) error {
	if unit == nil {
		return errors.Validation("no unit to share")
	}
	url := unit.PrimarySource()
	if url == "" {
		return errors.Validationf("unit %s has no shareable URL", unit.ID)
	}

	s.sink.Share(unit.Title, url)
	if s.logger != nil {
		s.logger.Debug("unit shared", "unit_id", unit.ID)
	}
	return nil
}

// LogSink writes hand-offs to the log. The daemon's default sink; mobile
// builds replace it with the platform share sheet.
type LogSink struct {
	Logger *slog.Logger
}

func (l *LogSink) Share(title, url string) {
	if l.Logger != nil {
		l.Logger.Info("share hand-off", "title", title, "url", url)
	}
}
