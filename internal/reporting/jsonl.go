package reporting

import (
	"context"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONLines writes one JSON object per result. It is safe for concurrent use.
type JSONLines struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
}

var _ Sink = (*JSONLines)(nil)

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Record(_ context.Context, r Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode result for %s: %w", r.Journey, err)
	}
	return nil
}

// Close is a no-op; the owner of the writer closes it.
func (j *JSONLines) Close() error { return nil }
