// Package config loads and validates numbridge host options.
package config

import (
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/numbridge/application/schema"
	"github.com/reglet-dev/numbridge/application/validation"
	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/log"
)

// Options configures a numbridge host.
type Options struct {
	LSFit LSFitOptions `json:"lsfit" yaml:"lsfit"`
	Log   LogOptions   `json:"log" yaml:"log"`
	WASM  WASMOptions  `json:"wasm" yaml:"wasm"`

	// MaxVectorLength caps vectors passed in from scripts and guests.
	// Zero disables the cap.
	MaxVectorLength int `json:"max_vector_length" yaml:"max_vector_length" validate:"gte=0" jsonschema:"minimum=0"`
}

// LSFitOptions are the defaults of new nonlinear fitters. All zero
// stopping conditions select the library's own default.
type LSFitOptions struct {
	EpsF          float64 `json:"epsf" yaml:"epsf" validate:"gte=0" jsonschema:"minimum=0"`
	EpsX          float64 `json:"epsx" yaml:"epsx" validate:"gte=0" jsonschema:"minimum=0"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" validate:"gte=0" jsonschema:"minimum=0"`

	// DiffStep is used when a script creates a fitter without a
	// differentiation step. Zero makes the step mandatory.
	DiffStep float64 `json:"diff_step" yaml:"diff_step" validate:"gte=0" jsonschema:"minimum=0"`
}

// LogOptions select the host logger.
type LogOptions struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json" jsonschema:"enum=text,enum=json"`
}

// WASMOptions configure the WebAssembly host surface.
type WASMOptions struct {
	ModuleName     string `json:"module_name" yaml:"module_name" validate:"required" jsonschema:"minLength=1"`
	MaxRequestSize uint32 `json:"max_request_size" yaml:"max_request_size" validate:"gt=0" jsonschema:"minimum=1"`
}

// Default returns the options used when no file is given.
func Default() *Options {
	return &Options{
		MaxVectorLength: entities.DefaultMaxVectorLength,
		Log: LogOptions{
			Level:  "info",
			Format: log.FormatText,
		},
		WASM: WASMOptions{
			ModuleName:     "numbridge_host",
			MaxRequestSize: 1 << 20,
		},
	}
}

var documentSchema = sync.OnceValues(func() (*validation.SchemaValidator, error) {
	return schema.Validator("numbridge-config.json", Options{}, schema.Partial())
})

// Schema returns the JSON schema of configuration documents.
func Schema() ([]byte, error) {
	return schema.GenerateSchema(Options{}, schema.Partial())
}

// Load reads a YAML (or JSON) options file. Keys absent from the file keep
// their defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{Field: path, Err: err}
	}
	return Parse(data)
}

// Parse decodes an options document on top of Default. The document is
// checked against the schema before decoding, and the decoded options are
// validated again through their struct tags.
func Parse(data []byte) (*Options, error) {
	var doc Values
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.ConfigError{Field: "document", Err: fmt.Errorf("failed to parse YAML: %w", err)}
	}

	opts := Default()
	if doc == nil {
		return opts, nil
	}

	sv, err := documentSchema()
	if err != nil {
		return nil, err
	}
	res, err := sv.Validate(doc)
	if err != nil {
		return nil, &errors.ConfigError{Field: "document", Err: err}
	}
	if !res.Valid {
		first := res.Errors[0]
		return nil, &errors.ConfigError{Field: first.Field, Err: stdErrors.New(first.Message)}
	}

	if err := validation.Decode(doc, opts); err != nil {
		return nil, &errors.ConfigError{Field: "document", Err: err}
	}
	return opts, nil
}

// setters maps the dotted option keys accepted by Apply to their fields.
var setters = map[string]func(o *Options, v Values, key string) error{
	"max_vector_length": func(o *Options, v Values, key string) (err error) {
		o.MaxVectorLength, err = MustGetInt(v, key)
		return err
	},
	"lsfit.epsf": func(o *Options, v Values, key string) (err error) {
		o.LSFit.EpsF, err = MustGetFloat(v, key)
		return err
	},
	"lsfit.epsx": func(o *Options, v Values, key string) (err error) {
		o.LSFit.EpsX, err = MustGetFloat(v, key)
		return err
	},
	"lsfit.max_iterations": func(o *Options, v Values, key string) (err error) {
		o.LSFit.MaxIterations, err = MustGetInt(v, key)
		return err
	},
	"lsfit.diff_step": func(o *Options, v Values, key string) (err error) {
		o.LSFit.DiffStep, err = MustGetFloat(v, key)
		return err
	},
	"log.level": func(o *Options, v Values, key string) (err error) {
		o.Log.Level, err = MustGetString(v, key)
		return err
	},
	"log.format": func(o *Options, v Values, key string) (err error) {
		o.Log.Format, err = MustGetString(v, key)
		return err
	},
	"wasm.module_name": func(o *Options, v Values, key string) (err error) {
		o.WASM.ModuleName, err = MustGetString(v, key)
		return err
	},
	"wasm.max_request_size": func(o *Options, v Values, key string) error {
		n, err := MustGetInt(v, key)
		if err != nil {
			return err
		}
		if n < 0 {
			return &errors.ConfigError{Field: key, Err: fmt.Errorf("must be positive, got %d", n)}
		}
		o.WASM.MaxRequestSize = uint32(n) //nolint:gosec // G115: checked above, validated below
		return nil
	},
}

// Keys returns the dotted option keys accepted by Apply.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply sets options from dotted keys such as "lsfit.epsx" and validates
// the result. Keys are applied in sorted order.
func (o *Options) Apply(values Values) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		set, ok := setters[key]
		if !ok {
			return &errors.ConfigError{Field: key, Err: stdErrors.New("unknown option")}
		}
		if err := set(o, values, key); err != nil {
			return err
		}
	}
	return o.Validate()
}

// Validate checks the options' struct tags.
func (o *Options) Validate() error {
	res := validation.StructResult(o)
	if res.Valid {
		return nil
	}
	first := res.Errors[0]
	return &errors.ConfigError{Field: first.Field, Err: stdErrors.New(first.Message)}
}

// Logger builds the configured logger writing to w.
func (o *Options) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := log.ParseLevel(o.Log.Level)
	if err != nil {
		return nil, &errors.ConfigError{Field: "log.level", Err: err}
	}
	logger, err := log.New(w, log.WithLevel(level), log.WithFormat(o.Log.Format))
	if err != nil {
		return nil, &errors.ConfigError{Field: "log.format", Err: err}
	}
	return logger, nil
}
