package types

import (
	"fmt"
	"strings"
)

// Image encodings accepted by Config.ImageEncoding.
const (
	EncodingBytes  = "bytes"  // JSON array of byte values.
	EncodingBase64 = "base64" // Standard base64 text.
)

// DefaultImageKey names the slot holding the serialized database.
const DefaultImageKey = "tally.sqlite"

// Config holds the parameters used to open a store.
type Config struct {
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	ImageKey      string `json:"image_key" yaml:"image_key"`
	ImageEncoding string `json:"image_encoding" yaml:"image_encoding"`
	SchemaFile    string `json:"schema_file,omitempty" yaml:"schema_file,omitempty"`
}

// WithDefaults returns a copy of c with empty values filled in.
func (c Config) WithDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.ImageKey == "" {
		c.ImageKey = DefaultImageKey
	}
	if c.ImageEncoding == "" {
		c.ImageEncoding = EncodingBytes
	}
	return c
}

// Validate checks that the Config is well-formed after defaults apply.
func (c Config) Validate() error {
	c = c.WithDefaults()
	switch c.ImageEncoding {
	case EncodingBytes, EncodingBase64:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, c.ImageEncoding)
	}
	if strings.ContainsAny(c.ImageKey, `/\`) || c.ImageKey == "." || c.ImageKey == ".." {
		return fmt.Errorf("%w: image key %q must be a plain name", ErrInvalidConfig, c.ImageKey)
	}
	return nil
}
