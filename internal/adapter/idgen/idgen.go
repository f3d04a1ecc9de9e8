// Package idgen contains the default [domain.IDGenerator] implementation.
package idgen

import (
	"encoding/base64"
	"io"

	"github.com/google/uuid"

	"github.com/leoafarias/firekit-sub000/domain"
)

// readerIDLength is the length of IDs produced by the reader-backed
// generator.
const readerIDLength = 16

// IDGenerator implements [domain.IDGenerator]. The default generates UUID v4
// strings; a custom entropy reader switches to base64-encoded random bytes,
// which is what deterministic tests want.
type IDGenerator struct {
	reader io.Reader
}

// Option configures an IDGenerator.
type Option func(*IDGenerator)

// WithRandomReader sets the entropy source. IDs become base64-encoded bytes
// read from it instead of UUIDs.
func WithRandomReader(r io.Reader) Option {
	return func(i *IDGenerator) {
		i.reader = r
	}
}

// NewIDGenerator returns a new implementation of [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := &IDGenerator{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// GenerateID implements [domain.IDGenerator].
func (i *IDGenerator) GenerateID() (string, error) {
	if i.reader == nil {
		return uuid.NewString(), nil
	}

	buf := make([]byte, readerIDLength*2)
	if _, err := i.reader.Read(buf); err != nil {
		return "", err
	}
	enc := base64.StdEncoding.EncodeToString(buf)

	res := make([]byte, 0, readerIDLength)
	for _, b := range []byte(enc) {
		switch b {
		case '+', '/', '=':
		default:
			res = append(res, b)
		}
		if len(res) == readerIDLength {
			break
		}
	}
	return string(res), nil
}
