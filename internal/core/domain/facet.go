package domain

import (
	"fmt"

	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
)

// NotInformed is the histogram label used for records whose facet value is absent or empty.
const NotInformed = "Não informado"

// FacetName is one categorical filter dimension.
type FacetName string

const (
	FacetStatus   FacetName = "status"
	FacetType     FacetName = "tipo"
	FacetEmployee FacetName = "funcionario"
	FacetClient   FacetName = "cliente"
	FacetSystem   FacetName = "sistema"
	FacetChannel  FacetName = "canal"
)

// Facets lists every facet in display order.
var Facets = []FacetName{
	FacetStatus,
	FacetType,
	FacetEmployee,
	FacetClient,
	FacetSystem,
	FacetChannel,
}

type facetField struct {
	attribute string
	read      func(Record) string
}

// facetFields is the fixed FacetName -> Record attribute table.
var facetFields = map[FacetName]facetField{
	FacetStatus:   {"status_atendimento", func(r Record) string { return string(r.Status) }},
	FacetType:     {"tipo_atendimento", func(r Record) string { return r.Type }},
	FacetEmployee: {"funcionario", func(r Record) string { return r.Employee }},
	FacetClient:   {"cliente", func(r Record) string { return r.Client }},
	FacetSystem:   {"sistema", func(r Record) string { return r.System }},
	FacetChannel:  {"canal_atendimento", func(r Record) string { return r.Channel }},
}

// ValidateFacetMapping checks that every facet is bound to exactly one attribute.
// It is called once at startup.
func ValidateFacetMapping() error {
	if len(facetFields) != len(Facets) {
		return fmt.Errorf("facet table has %d entries, want %d", len(facetFields), len(Facets))
	}
	seen := make(map[string]FacetName, len(Facets))
	for _, f := range Facets {
		field, ok := facetFields[f]
		if !ok || field.read == nil {
			return fmt.Errorf("facet %q has no attribute", f)
		}
		if other, dup := seen[field.attribute]; dup {
			return fmt.Errorf("facets %q and %q share attribute %q", other, f, field.attribute)
		}
		seen[field.attribute] = f
	}
	return nil
}

// ParseFacet converts a wire name into a FacetName.
func ParseFacet(name string) (FacetName, error) {
	f := FacetName(name)
	if _, ok := facetFields[f]; !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownFacet, name)
	}
	return f, nil
}

// IsValid reports whether f is one of the known facets.
func (f FacetName) IsValid() bool {
	_, ok := facetFields[f]
	return ok
}

// Attribute returns the source attribute name the facet reads.
func (f FacetName) Attribute() string {
	return facetFields[f].attribute
}

// FacetValue returns the record's value for the facet, or "" when absent.
func (r Record) FacetValue(f FacetName) string {
	field, ok := facetFields[f]
	if !ok {
		return ""
	}
	return field.read(r)
}
