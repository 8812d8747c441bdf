package sheets

import (
	"strings"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SheetTimestampLayout is the form's "Carimbo de data/hora" format.
const SheetTimestampLayout = "02/01/2006 15:04:05"

// recordTimestampLayout is how normalized timestamps are stored: naive ISO,
// interpreted in the dashboard timezone.
const recordTimestampLayout = "2006-01-02T15:04:05"

// Default values for blank cells.
const (
	DefaultStatus  = string(domain.StatusPending)
	DefaultType    = "Não categorizado"
	DefaultSpecify = "Não especificado"
)

// columnAliases maps the form's question headers to record attributes. The
// attribute names themselves are accepted too.
var columnAliases = map[string]string{
	"Carimbo de data/hora":                                       "data_hora",
	"Prestador de Serviços:":                                     "funcionario",
	"Empresa atendida:":                                          "cliente",
	"Nome do solicitante:":                                       "solicitante",
	"Relato do pedido de atendimento:":                           "solicitacao_cliente",
	"Relato mais detalhado do pedido do cliente:":                "descricao_atendimento",
	"Status do atendimento:":                                     "status_atendimento",
	"Tipo do atendimento solicitado:":                            "tipo_atendimento",
	"Sistema do cliente:":                                        "sistema",
	"Qual(s) canal(s) utilizado(s) para realizar o atendimento?": "canal_atendimento",
	"Hora de início:":                                            "start_time",
	"Hora de término:":                                           "end_time",
}

var attributes = map[string]bool{
	"data_hora":             true,
	"funcionario":           true,
	"cliente":               true,
	"solicitante":           true,
	"solicitacao_cliente":   true,
	"descricao_atendimento": true,
	"status_atendimento":    true,
	"tipo_atendimento":      true,
	"sistema":               true,
	"canal_atendimento":     true,
	"start_time":            true,
	"end_time":              true,
}

// attributeFor resolves a header cell to an attribute name, or "".
func attributeFor(header string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if attr, ok := columnAliases[header]; ok {
		return attr
	}
	if attributes[header] {
		return header
	}
	return ""
}

// Normalizer turns raw sheet rows into records. It is not safe for concurrent use.
type Normalizer struct {
	title cases.Caser
}

func NewNormalizer() *Normalizer {
	return &Normalizer{title: cases.Title(language.BrazilianPortuguese)}
}

// Normalize maps one row. header holds the resolved attribute per column.
// Names are trimmed and title-cased, blank cells get their defaults, and the
// timestamp is converted to ISO form. A timestamp that does not parse is kept
// as written.
func (n *Normalizer) Normalize(header []string, row []string) domain.Record {
	values := make(map[string]string, len(header))
	for i, attr := range header {
		if attr == "" || i >= len(row) {
			continue
		}
		values[attr] = strings.TrimSpace(row[i])
	}

	return domain.Record{
		Timestamp:   normalizeTimestamp(values["data_hora"]),
		Employee:    n.name(values["funcionario"], domain.NotInformed),
		Client:      n.name(values["cliente"], domain.NotInformed),
		Requester:   n.name(values["solicitante"], domain.NotInformed),
		System:      n.name(values["sistema"], DefaultSpecify),
		Request:     orDefault(values["solicitacao_cliente"], domain.NotInformed),
		Description: orDefault(values["descricao_atendimento"], domain.NotInformed),
		Status:      domain.RecordStatus(orDefault(values["status_atendimento"], DefaultStatus)),
		Type:        orDefault(values["tipo_atendimento"], DefaultType),
		Channel:     orDefault(values["canal_atendimento"], DefaultSpecify),
		StartTime:   values["start_time"],
		EndTime:     values["end_time"],
	}
}

// name title-cases a non-blank value. Defaults are not title-cased so they
// stay equal to the histogram's missing-value label.
func (n *Normalizer) name(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return n.title.String(value)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func normalizeTimestamp(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(SheetTimestampLayout, value)
	if err != nil {
		return value
	}
	return t.Format(recordTimestampLayout)
}
