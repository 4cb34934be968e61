// Package uuid provides ID generation helpers.
package uuid

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Generator creates clip IDs and upload name prefixes.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string. IDs sort by creation time, which keeps log
// lines for one clip easy to find.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// NewPrefix returns 16 random hex characters used to make upload names unique.
func (Generator) NewPrefix() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid4: %w", err)
	}
	return hex.EncodeToString(id[8:]), nil
}
