package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// keyVersion is bumped whenever the diagram or DOT output changes shape, so
// stale artifacts from older builds are never served.
const keyVersion = "v1"

// Keyer generates cache keys for pipeline outputs.
type Keyer interface {
	// GraphKey returns the key for the JSON graph built from an input.
	GraphKey(inputHash string) string
	// ArtifactKey returns the key for a rendered artifact of an input.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string
	Name        string
	FontName    string
	Transparent bool
	Scale       float64
}

// fingerprint hashes the options other than the format. Fields are
// length-prefixed so that no two option sets share an encoding.
func (o ArtifactKeyOpts) fingerprint() string {
	var b strings.Builder
	for _, field := range []string{
		o.Name,
		o.FontName,
		strconv.FormatBool(o.Transparent),
		strconv.FormatFloat(o.Scale, 'g', -1, 64),
	} {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
	}
	return Hash([]byte(b.String()))[:16]
}

// DefaultKeyer builds readable keys of the form
// "graph:v1:<input>" and "artifact:v1:<format>:<input>:<options>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(inputHash string) string {
	return strings.Join([]string{"graph", keyVersion, inputHash}, ":")
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return strings.Join([]string{"artifact", keyVersion, opts.Format, inputHash, opts.fingerprint()}, ":")
}

// Hash returns the hex SHA-256 of data. Inputs are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
