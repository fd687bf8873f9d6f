package namespace

import (
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/geoknoesis/shacl-go/rdf"
)

// Minter issues identifiers for one conversion and watches for labels that
// sanitize to the same identifier.
//
// With disambiguation off, a collision is logged and the shared identifier
// is returned unchanged. With it on, the later label gets a "-xxxxxxxx"
// suffix derived from the raw label.
type Minter struct {
	ns           Namespace
	disambiguate bool
	logger       *slog.Logger
	owners       map[string]string
	issued       map[string]rdf.IRI
	collisions   int
}

// NewMinter creates a Minter over ns. A nil logger uses slog.Default().
func NewMinter(ns Namespace, disambiguate bool, logger *slog.Logger) *Minter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Minter{
		ns:           ns,
		disambiguate: disambiguate,
		logger:       logger,
		owners:       make(map[string]string),
		issued:       make(map[string]rdf.IRI),
	}
}

// Namespace returns the namespace identifiers are minted in.
func (m *Minter) Namespace() Namespace { return m.ns }

// Mint returns the identifier for label. The same label always maps to the
// same identifier within one Minter.
func (m *Minter) Mint(label string) rdf.IRI {
	if id, ok := m.issued[label]; ok {
		return id
	}
	id := m.ns.Term(label)
	owner, taken := m.owners[id.Value]
	if taken && owner != label {
		m.collisions++
		m.logger.Warn("identifier collision",
			slog.String("identifier", id.Value),
			slog.String("label", label),
			slog.String("existing_label", owner),
			slog.Bool("disambiguated", m.disambiguate))
		if m.disambiguate {
			id = rdf.NewIRI(fmt.Sprintf("%s-%08x", id.Value, uint32(xxhash.Sum64String(label))))
		}
	}
	if !taken {
		m.owners[id.Value] = label
	}
	m.issued[label] = id
	return id
}

// Collisions returns how many labels hit an identifier already minted for
// a different label.
func (m *Minter) Collisions() int { return m.collisions }
