package normalize

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Shape is the closed set of payload layouts the remote service may answer with.
type Shape int

const (
	ShapeEmpty   Shape = iota // nothing decodable
	ShapeSingle               // one bare record
	ShapeArray                // a bare array of records
	ShapeWrapped              // an object carrying records under a wrapper field
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "empty"
	}
}

// WrapperKeys are the fields that may hold the record list of a wrapped payload.
// "images" is what the reference backend uses for its job status.
var WrapperKeys = []string{"items", "data", "result", "images"}

// Payload is a decoded response coerced into a list of records.
// Top is the enclosing object for single and wrapped payloads, nil otherwise.
type Payload struct {
	Shape   Shape
	Records []Record
	Top     Record
}

// Decode parses a response body with sonic. An empty body decodes to nil.
func Decode(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := sonic.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode response payload: %v", err)
	}
	return v, nil
}

// Parse decodes body and resolves its shape.
func Parse(body []byte) (Payload, error) {
	v, err := Decode(body)
	if err != nil {
		return Payload{}, err
	}
	return Resolve(v), nil
}

// Resolve classifies a decoded value and extracts its records.
func Resolve(v any) Payload {
	switch val := v.(type) {
	case []any:
		return Payload{Shape: ShapeArray, Records: recordsOf(val)}
	case map[string]any:
		top := Record(val)
		for _, key := range WrapperKeys {
			switch inner := val[key].(type) {
			case []any:
				return Payload{Shape: ShapeWrapped, Records: recordsOf(inner), Top: top}
			case map[string]any:
				return Payload{Shape: ShapeWrapped, Records: []Record{Record(inner)}, Top: top}
			}
		}
		return Payload{Shape: ShapeSingle, Records: []Record{top}, Top: top}
	default:
		return Payload{Shape: ShapeEmpty}
	}
}

// First returns the first record, or an empty one.
func (p Payload) First() Record {
	if len(p.Records) == 0 {
		if p.Top != nil {
			return p.Top
		}
		return Record{}
	}
	return p.Records[0]
}

// BatchDownloadURL picks the batch archive location: the last record carrying one
// wins, and a top-level location wins over any record.
func (p Payload) BatchDownloadURL() string {
	if p.Top != nil {
		if url := p.Top.String(BatchURLKeys...); url != "" {
			return url
		}
	}
	var url string
	for _, rec := range p.Records {
		if candidate := rec.String(BatchURLKeys...); candidate != "" {
			url = candidate
		}
	}
	return url
}

func recordsOf(list []any) []Record {
	records := make([]Record, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			records = append(records, Record(obj))
		}
	}
	return records
}
