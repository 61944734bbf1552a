package output

import (
	"github.com/goccy/go-json"
	"github.com/rpgo/lifedash/internal/domain"
)

// JSONFormatter serializes the projection as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string      { return "json" }
func (j JSONFormatter) Extension() string { return "json" }

func (j JSONFormatter) Format(p *domain.Projection) ([]byte, error) {
	return json.MarshalIndent(struct {
		*domain.Projection
		Summary Summary `json:"summary"`
	}{p, Summarize(p)}, "", "  ")
}
