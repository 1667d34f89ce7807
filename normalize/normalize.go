// ABOUTME: Turns free-text buyer requests into structured request specs
// ABOUTME: Keyword and pattern extraction followed by JSON schema validation of the field document
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

// RequiredFields must all be present for a request to be ready for RFQ.
var RequiredFields = []string{"category", "quantity", "delivery_location"}

type categoryRule struct {
	name    string
	pattern *regexp.Regexp
}

func rule(name string, words ...string) categoryRule {
	return categoryRule{
		name:    name,
		pattern: regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)(?:s|es)?\b`),
	}
}

// First matching rule wins.
var categoryRules = []categoryRule{
	rule("electronics", "laptop", "computer", "computadora", "monitor", "printer", "impresora", "keyboard", "teclado", "mouse", "cable", "tablet", "server", "servidor"),
	rule("furniture", "chair", "silla", "desk", "escritorio", "table", "mesa", "shelf", "shelve", "estante", "cabinet", "archivero"),
	rule("office_supplies", "paper", "papel", "pen", "pluma", "toner", "folder", "carpeta", "stapler", "engrapadora", "notebook", "cuaderno"),
	rule("cleaning", "detergent", "detergente", "soap", "jabon", "jabón", "mop", "trapeador", "disinfectant", "desinfectante", "cloro"),
	rule("safety", "helmet", "casco", "glove", "guante", "vest", "chaleco", "goggle", "respirator"),
	rule("industrial", "bolt", "screw", "tornillo", "pipe", "tubo", "valve", "valvula", "válvula", "bearing", "rodamiento", "motor"),
	rule("packaging", "box", "caja", "pallet", "tarima", "tape", "cinta", "bag", "bolsa", "stretch film"),
}

// Categories lists every category the normalizer can assign.
func Categories() []string {
	out := make([]string, len(categoryRules))
	for i, r := range categoryRules {
		out[i] = r.name
	}
	return out
}

var (
	explicitQtyRe = regexp.MustCompile(`\b(?:qty|quantity|cantidad)\s*[:=]?\s*(\d{1,7})\b`)
	countRe       = regexp.MustCompile(`\b(\d{1,7})\s*(?:x\s+)?([a-záéíóúñ]+)`)
	locationRe    = regexp.MustCompile(`(?i)(?:deliver(?:y|ed)?\s+(?:to|at)|ship(?:ped)?\s+to|entregar?\s+en|enviar\s+a|(?:location|ubicaci[oó]n)\s*:)\s*([^.,;\n]+)`)
	locationCutRe = regexp.MustCompile(`(?i)\s+(?:by|before|within|on|antes|para el|en \d)\b.*$`)
	durationLead  = regexp.MustCompile(`^\d{1,3}\s+(?:days?|d[ií]as?|weeks?|semanas?)\b`)
	dateRe        = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	withinDaysRe  = regexp.MustCompile(`\b(?:in|within|en)\s+(\d{1,3})\s+(?:days?|d[ií]as?)\b`)
	urgentRe      = regexp.MustCompile(`\b(?:urgent|urgente|asap|emergency|emergencia)\b`)
	highRe        = regexp.MustCompile(`\b(?:high priority|alta prioridad|priority)\b`)
)

var units = map[string]string{
	"unit": "unit", "units": "unit", "unidad": "unit", "unidades": "unit",
	"pc": "piece", "pcs": "piece", "piece": "piece", "pieces": "piece", "pieza": "piece", "piezas": "piece",
	"box": "box", "boxes": "box", "caja": "box", "cajas": "box",
	"kg": "kg", "kgs": "kg", "kilo": "kg", "kilos": "kg",
	"lb": "lb", "lbs": "lb",
	"liter": "liter", "liters": "liter", "litro": "liter", "litros": "liter",
	"meter": "meter", "meters": "meter", "metro": "meter", "metros": "meter",
	"pallet": "pallet", "pallets": "pallet", "tarima": "pallet", "tarimas": "pallet",
}

// Words after a number that mean it is a duration, not a quantity.
var durationWords = map[string]bool{
	"day": true, "days": true, "dia": true, "dias": true, "día": true, "días": true,
	"week": true, "weeks": true, "semana": true, "semanas": true,
	"hour": true, "hours": true, "horas": true, "month": true, "months": true, "meses": true,
}

const fieldsSchema = `{
	"type": "object",
	"properties": {
		"category": {"type": "string", "enum": %s},
		"quantity": {"type": "integer", "minimum": 1},
		"unit": {"type": "string", "minLength": 1},
		"delivery_location": {"type": "string", "minLength": 2, "maxLength": 200},
		"deadline": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"deadline_days": {"type": "integer", "minimum": 0},
		"urgency": {"type": "string", "enum": ["low", "normal", "high", "urgent"]}
	},
	"additionalProperties": false
}`

// Result is the outcome of normalizing one request.
type Result struct {
	Normalized   string
	Category     string
	Urgency      models.Urgency
	Fields       models.Metadata
	Completeness float64
	Missing      []string
	Problems     []string
	Valid        bool
}

// Spec converts the result into the persisted request spec.
func (r *Result) Spec(requestID uuid.UUID) *models.RequestSpec {
	return &models.RequestSpec{
		RequestID:     requestID,
		Fields:        r.Fields,
		Completeness:  r.Completeness,
		MissingFields: r.Missing,
		IsValid:       r.Valid,
	}
}

type Normalizer struct {
	schema *jsonschema.Schema
	now    func() time.Time
}

func New() (*Normalizer, error) {
	categories, err := json.Marshal(Categories())
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("request_fields.json", strings.NewReader(fmt.Sprintf(fieldsSchema, categories))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("request_fields.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Normalizer{schema: schema, now: time.Now}, nil
}

// Normalize extracts fields from raw and scores completeness. A result that
// is incomplete or fails validation is still returned; err is reserved for
// internal failures.
func (n *Normalizer) Normalize(raw string) (*Result, error) {
	normalized := strings.Join(strings.Fields(raw), " ")
	text := strings.ToLower(normalized)

	fields := models.Metadata{}
	res := &Result{Normalized: normalized, Urgency: models.UrgencyNormal, Fields: fields}

	for _, r := range categoryRules {
		if r.pattern.MatchString(text) {
			res.Category = r.name
			fields["category"] = r.name
			break
		}
	}

	if qty, unit, ok := extractQuantity(text); ok {
		fields["quantity"] = qty
		if unit != "" {
			fields["unit"] = unit
		}
	}

	if m := locationRe.FindStringSubmatch(normalized); m != nil && !durationLead.MatchString(m[1]) {
		loc := strings.TrimSpace(locationCutRe.ReplaceAllString(m[1], ""))
		if loc != "" {
			fields["delivery_location"] = loc
		}
	}

	if m := dateRe.FindStringSubmatch(text); m != nil {
		fields["deadline"] = m[1]
	} else if m := withinDaysRe.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		fields["deadline_days"] = days
		fields["deadline"] = n.now().UTC().AddDate(0, 0, days).Format("2006-01-02")
	}

	switch {
	case urgentRe.MatchString(text):
		res.Urgency = models.UrgencyUrgent
	case highRe.MatchString(text):
		res.Urgency = models.UrgencyHigh
	}
	if res.Urgency != models.UrgencyNormal {
		fields["urgency"] = string(res.Urgency)
	}

	present := 0
	for _, f := range RequiredFields {
		if _, ok := fields[f]; ok {
			present++
		} else {
			res.Missing = append(res.Missing, f)
		}
	}
	res.Completeness = float64(present) / float64(len(RequiredFields))

	problems, err := n.validate(fields)
	if err != nil {
		return nil, err
	}
	res.Problems = problems
	res.Valid = len(res.Missing) == 0 && len(problems) == 0

	return res, nil
}

func (n *Normalizer) validate(fields models.Metadata) ([]string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}

	err = n.schema.Validate(v)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	var problems []string
	for _, cause := range leafCauses(verr) {
		problems = append(problems, fmt.Sprintf("%s: %s", cause.InstanceLocation, cause.Message))
	}
	return problems, nil
}

func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, c := range err.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}

func extractQuantity(text string) (int, string, bool) {
	if m := explicitQtyRe.FindStringSubmatch(text); m != nil {
		qty, err := strconv.Atoi(m[1])
		return qty, "", err == nil
	}

	dates := dateRe.FindAllStringIndex(text, -1)
	for _, m := range countRe.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], dates) {
			continue
		}
		word := text[m[4]:m[5]]
		if durationWords[word] {
			continue
		}
		qty, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		return qty, units[word], true
	}
	return 0, "", false
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
