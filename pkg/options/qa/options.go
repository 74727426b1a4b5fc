// Package qa provides configuration options for the question answering
// pipeline.
package qa

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/clinsop/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains QA pipeline configuration.
type Options struct {
	// TopK is the number of chunks retrieved for each query.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// EmbeddingDim is the dimension of embedding vectors. It must match the
	// vector column of the document store.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// QueryTimeout bounds a single query end to end. Zero disables the
	// timeout and the query runs until the client gives up.
	QueryTimeout time.Duration `json:"query-timeout" mapstructure:"query-timeout"`

	// MaxQueryLength caps the accepted query length in bytes.
	MaxQueryLength int `json:"max-query-length" mapstructure:"max-query-length"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		TopK:           3,
		EmbeddingDim:   1536, // text-embedding-3-small dimension
		QueryTimeout:   0,
		MaxQueryLength: 4096,
	}
}

// AddFlags adds flags for QA options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"qa.top-k", o.TopK, "Number of chunks retrieved per query.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"qa.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.DurationVar(&o.QueryTimeout, options.Join(prefixes...)+"qa.query-timeout", o.QueryTimeout, "End to end query timeout (0 disables).")
	fs.IntVar(&o.MaxQueryLength, options.Join(prefixes...)+"qa.max-query-length", o.MaxQueryLength, "Maximum accepted query length in bytes.")
}

// Validate validates the QA options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.QueryTimeout < 0 {
		errs = append(errs, fmt.Errorf("query-timeout cannot be negative"))
	}
	return errs
}

// Complete completes the QA options with defaults.
func (o *Options) Complete() error {
	if o.MaxQueryLength <= 0 {
		o.MaxQueryLength = 4096
	}
	return nil
}
