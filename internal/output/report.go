package output

import (
	"os"

	"github.com/rpgo/lifedash/internal/domain"
	"gopkg.in/yaml.v3"
)

// GenerateReport writes p in the named format to dir and returns the file
// names written. "all" writes the console table and the CSV rows.
func GenerateReport(p *domain.Projection, format, dir string) ([]string, error) {
	var formatters []Formatter
	if NormalizeFormatName(format) == "all" {
		formatters = []Formatter{ConsoleFormatter{}, CSVFormatter{}}
	} else {
		f, err := Lookup(format)
		if err != nil {
			return nil, err
		}
		formatters = []Formatter{f}
	}

	var files []string
	for _, f := range formatters {
		name, err := WriteFormatted(f, p, dir)
		if err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

// SaveParameters writes projection parameters as YAML so a run can be
// repeated with the project command.
func SaveParameters(params domain.ProjectionParameters, filename string) error {
	b, err := yaml.Marshal(params)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
