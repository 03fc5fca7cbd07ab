package latex

import (
	"strings"
	"unicode"
)

// Rasterizer turns formula source into something displayable. ok=false means
// the input could not be rendered and the caller should show it verbatim.
type Rasterizer interface {
	Render(src string) (out string, ok bool)
}

// UnicodeRasterizer approximates LaTeX with Unicode text for terminals.
type UnicodeRasterizer struct{}

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι",
	"kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π",
	"rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ", "phi": "φ",
	"varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"times": "×", "cdot": "·", "div": "÷", "pm": "±", "mp": "∓",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "propto": "∝",
	"infty": "∞", "partial": "∂", "nabla": "∇", "sum": "∑", "prod": "∏",
	"int": "∫", "oint": "∮", "in": "∈", "notin": "∉", "subset": "⊂",
	"subseteq": "⊆", "supset": "⊃", "cup": "∪", "cap": "∩", "emptyset": "∅",
	"forall": "∀", "exists": "∃", "neg": "¬", "land": "∧", "lor": "∨",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "leftrightarrow": "↔", "Leftrightarrow": "⇔",
	"mapsto": "↦", "ldots": "…", "cdots": "⋯", "dots": "…", "circ": "∘",
	"degree": "°", "prime": "′", "hbar": "ℏ", "ell": "ℓ",
	"quad": "  ", "qquad": "    ", ",": " ", ";": " ", "!": "", " ": " ",
	"{": "{", "}": "}", "%": "%", "$": "$", "_": "_", "&": "&", "#": "#",
}

// Commands that only affect sizing or spacing and render as nothing.
var dropped = map[string]bool{
	"left": true, "right": true, "big": true, "Big": true, "bigg": true,
	"Bigg": true, "displaystyle": true, "textstyle": true, "limits": true,
	"mathrm": true, "mathbf": true, "mathit": true, "text": true,
	"operatorname": true, "mathbb": true, "mathcal": true,
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽',
	')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ', 'k': 'ᵏ', 'T': 'ᵀ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍',
	')': '₎', 'a': 'ₐ', 'e': 'ₑ', 'i': 'ᵢ', 'j': 'ⱼ', 'k': 'ₖ', 'n': 'ₙ',
	'x': 'ₓ',
}

// Render implements Rasterizer.
func (UnicodeRasterizer) Render(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || !balanced(src) {
		return "", false
	}
	p := &uparser{src: []rune(src)}
	out := strings.TrimSpace(p.sequence(false))
	if out == "" {
		return "", false
	}
	return out, true
}

func balanced(s string) bool {
	depth := 0
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

type uparser struct {
	src []rune
	pos int
}

// sequence renders until end of input, or the closing brace when inGroup.
func (p *uparser) sequence(inGroup bool) string {
	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		switch {
		case r == '}' && inGroup:
			p.pos++
			return b.String()
		case r == '{':
			p.pos++
			b.WriteString(p.sequence(true))
		case r == '\\':
			b.WriteString(p.command())
		case r == '^':
			p.pos++
			b.WriteString(script(p.argument(), superscripts, "^"))
		case r == '_':
			p.pos++
			b.WriteString(script(p.argument(), subscripts, "_"))
		case r == '&':
			p.pos++
			b.WriteRune(' ')
		default:
			p.pos++
			b.WriteRune(r)
		}
	}
	return b.String()
}

// argument reads one braced group or a single token.
func (p *uparser) argument() string {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return ""
	}
	switch r := p.src[p.pos]; r {
	case '{':
		p.pos++
		return p.sequence(true)
	case '\\':
		return p.command()
	default:
		p.pos++
		return string(r)
	}
}

func (p *uparser) command() string {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return ""
	}
	start := p.pos
	if !unicode.IsLetter(p.src[p.pos]) {
		p.pos++
		if s, ok := symbols[string(p.src[start:p.pos])]; ok {
			return s
		}
		if p.src[start] == '\\' {
			return "\n"
		}
		return string(p.src[start:p.pos])
	}
	for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	name := string(p.src[start:p.pos])
	switch name {
	case "frac", "dfrac", "tfrac":
		num := p.argument()
		den := p.argument()
		return wrapTerm(num) + "⁄" + wrapTerm(den)
	case "sqrt":
		return "√" + wrapTerm(p.argument())
	case "overline", "bar":
		return p.argument() + "̅"
	case "hat":
		return p.argument() + "̂"
	case "vec":
		return p.argument() + "⃗"
	}
	if s, ok := symbols[name]; ok {
		return s
	}
	if dropped[name] {
		return ""
	}
	return name
}

// script converts to super/subscript runes when every rune has a mapping,
// otherwise keeps the marker in front of the argument.
func script(arg string, table map[rune]rune, marker string) string {
	if arg == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range arg {
		m, ok := table[r]
		if !ok {
			if len([]rune(arg)) > 1 {
				return marker + "(" + arg + ")"
			}
			return marker + arg
		}
		b.WriteRune(m)
	}
	return b.String()
}

func wrapTerm(s string) string {
	if len([]rune(s)) <= 1 {
		return s
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "(" + s + ")"
		}
	}
	return s
}
