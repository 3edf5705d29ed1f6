package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats data as indented JSON. Records marshal as flat
// objects in attribute order.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
