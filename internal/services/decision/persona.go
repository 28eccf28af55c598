package decision

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"CoinSense/internal/domain/models"
)

// DefaultPersona is used for empty or unknown persona names.
const DefaultPersona = "bizyugo"

var outcomes = []models.Outcome{models.OutcomeBuy, models.OutcomeAvoid, models.OutcomeIndeterminate}

var templateFuncs = template.FuncMap{
	"f": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
}

// PersonaSpec describes a persona before compilation.
type PersonaSpec struct {
	Name        string
	RankCeiling float64
	Templates   map[models.Outcome][]string
}

// Persona is a compiled persona: a rank ceiling and reasoning templates per outcome.
type Persona struct {
	Name        string
	RankCeiling float64
	templates   map[models.Outcome][]*template.Template
}

// Personas is an immutable registry keyed by lower-cased name.
type Personas struct {
	byName   map[string]*Persona
	fallback *Persona
}

// NewPersonas compiles specs. fallback must name one of them.
func NewPersonas(fallback string, specs ...PersonaSpec) (*Personas, error) {
	p := &Personas{byName: make(map[string]*Persona, len(specs))}
	for _, spec := range specs {
		compiled, err := compilePersona(spec)
		if err != nil {
			return nil, err
		}
		p.byName[strings.ToLower(spec.Name)] = compiled
	}
	fb, ok := p.byName[strings.ToLower(fallback)]
	if !ok {
		return nil, fmt.Errorf("%w: default persona %q is not registered", ErrInvalidConfig, fallback)
	}
	p.fallback = fb
	return p, nil
}

func compilePersona(spec PersonaSpec) (*Persona, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: persona name is empty", ErrInvalidConfig)
	}
	if !positive(spec.RankCeiling) {
		return nil, fmt.Errorf("%w: persona %s rank ceiling must be > 0, got %v", ErrInvalidConfig, name, spec.RankCeiling)
	}
	out := &Persona{
		Name:        name,
		RankCeiling: spec.RankCeiling,
		templates:   make(map[models.Outcome][]*template.Template, len(outcomes)),
	}
	for _, oc := range outcomes {
		srcs := spec.Templates[oc]
		if len(srcs) == 0 {
			return nil, fmt.Errorf("%w: persona %s has no %s templates", ErrInvalidConfig, name, oc)
		}
		for i, src := range srcs {
			tpl, err := template.New(fmt.Sprintf("%s.%s.%d", name, oc, i)).
				Funcs(templateFuncs).
				Option("missingkey=error").
				Parse(src)
			if err != nil {
				return nil, fmt.Errorf("%w: persona %s template %d: %v", ErrInvalidConfig, name, i, err)
			}
			// Render once against a zero score set so Explain never fails later.
			text, err := render(tpl, models.ScoreSet{})
			if err != nil {
				return nil, fmt.Errorf("%w: persona %s template %d: %v", ErrInvalidConfig, name, i, err)
			}
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("%w: persona %s template %d renders empty", ErrInvalidConfig, name, i)
			}
			out.templates[oc] = append(out.templates[oc], tpl)
		}
	}
	return out, nil
}

// Resolve returns the named persona or the default one.
func (p *Personas) Resolve(name string) *Persona {
	if v, ok := p.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v
	}
	return p.fallback
}

// Names lists registered personas in order.
func (p *Personas) Names() []string {
	names := make([]string, 0, len(p.byName))
	for _, v := range p.byName {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

// Default returns the fallback persona.
func (p *Personas) Default() *Persona { return p.fallback }

// WithRankCeilings returns a copy of specs with ceilings overridden by name.
func WithRankCeilings(specs []PersonaSpec, ceilings map[string]float64) []PersonaSpec {
	out := make([]PersonaSpec, len(specs))
	copy(out, specs)
	for i := range out {
		for name, v := range ceilings {
			if strings.EqualFold(name, out[i].Name) {
				out[i].RankCeiling = v
			}
		}
	}
	return out
}

func render(tpl *template.Template, s models.ScoreSet) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuiltinPersonaSpecs returns the stock personas: murad (terse, ceiling 700)
// and bizyugo (analytical, ceiling 500).
func BuiltinPersonaSpecs() []PersonaSpec {
	return []PersonaSpec{
		{
			Name:        "Murad",
			RankCeiling: 700,
			Templates: map[models.Outcome][]string{
				models.OutcomeBuy: {
					"Yes.", "Absolutely.", "Without a doubt.", "Certainly.", "Affirmative.",
					"Indeed.", "Definitely.", "Sure thing.", "No question.", "Positively.",
				},
				models.OutcomeAvoid: {
					"No.", "Absolutely not.", "No way.", "Certainly not.", "Negative.",
					"Nope.", "Definitely not.", "Not at all.", "No chance.", "Absolutely no.",
				},
				models.OutcomeIndeterminate: {
					"Not yet.", "Wait.", "Ask me later.", "Unclear.", "Hold off.",
				},
			},
		},
		{
			Name:        "bizyugo",
			RankCeiling: 500,
			Templates: map[models.Outcome][]string{
				models.OutcomeBuy: {
					"Strong metrics. Consider investing.",
					"Positive indicators. Worth a look.",
					"Stable and liquid. Potential buy.",
					"Trending up. Investment viable.",
					"Solid fundamentals. Favorable prospect.",
					"Market interest high. Looks good.",
					"Stable growth. Investment-worthy.",
					"Gaining traction. Promising asset.",
					"Robust liquidity ({{f .Liquidity}}/100). Consider purchase.",
					"Significant market cap ({{f .MarketCap}}/100). Good choice.",
					"Total score {{f .Total}}. Trending {{f .Trending}}. Worth buying.",
				},
				models.OutcomeAvoid: {
					"High volatility. Best to avoid.",
					"Weak metrics. Not advisable.",
					"Unstable and illiquid. Risky.",
					"Negative indicators. Avoid.",
					"Poor fundamentals. Not recommended.",
					"Low market interest. Unfavorable.",
					"Declining trend. Not a good choice.",
					"Weak liquidity ({{f .Liquidity}}/100). High risk.",
					"Insufficient market cap ({{f .MarketCap}}/100). Avoid.",
					"Total score {{f .Total}}. Not ideal.",
				},
				models.OutcomeIndeterminate: {
					"Mixed signals. Ask again later.",
					"Score {{f .Total}} with stability {{f .Stability}}. No clear call yet.",
					"Neither strong nor weak. Check back later.",
				},
			},
		},
	}
}

// BuiltinPersonas compiles BuiltinPersonaSpecs with DefaultPersona as fallback.
func BuiltinPersonas() *Personas {
	p, err := NewPersonas(DefaultPersona, BuiltinPersonaSpecs()...)
	if err != nil {
		panic(err)
	}
	return p
}
