package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rpgo/lifedash/internal/domain"
)

// CSVFormatter writes one row per projected year.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string      { return "csv" }
func (c CSVFormatter) Extension() string { return "csv" }

func (c CSVFormatter) Format(p *domain.Projection) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Phase", "Age", "Balance", "Income", "RealIncome", "Withdrawal", "Pension", "SocialSecurity"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range p.Rows {
		phase := "working"
		if r.IsRetired() {
			phase = "retirement"
		}
		row := []string{
			phase,
			strconv.Itoa(r.Age),
			int64ToString(r.Balance),
			int64ToString(r.Income),
			int64ToString(r.RealIncome),
			optionalInt(r.Withdrawal),
			optionalInt(r.Pension),
			optionalInt(r.SocialSecurity),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func int64ToString(v int64) string { return strconv.FormatInt(v, 10) }

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return int64ToString(*v)
}
