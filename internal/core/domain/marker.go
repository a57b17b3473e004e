package domain

import (
	"slices"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/zerr"
)

// MarkerEnv is the PEP 508 environment a marker expression is evaluated
// against. One env describes one concrete (Blender version, platform)
// target; per-platform dependency subgraphs come from evaluating the
// same markers against different envs.
type MarkerEnv struct {
	PythonVersion      string
	PythonFullVersion  string
	OSName             string
	SysPlatform        string
	PlatformSystem     string
	ImplementationName string
	// PlatformMachines lists every machine string the target may report
	// (e.g. both "aarch64" and "arm64" for linux-arm64 runtimes).
	PlatformMachines []string
	// Extras active for this evaluation, normally empty.
	Extras []string
}

var errMarkerSyntax = zerr.New("malformed environment marker")

// EvaluateMarker evaluates a PEP 508 environment marker against env.
// An empty marker is trivially true.
func EvaluateMarker(marker string, env MarkerEnv) (bool, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true, nil
	}
	p := &markerParser{input: marker, env: env}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return false, zerr.With(zerr.Wrap(errMarkerSyntax, "trailing input"), "marker", marker)
	}
	return result, nil
}

// markerParser is a recursive-descent parser over the marker grammar:
//
//	or     := and ("or" and)*
//	and    := factor ("and" factor)*
//	factor := "(" or ")" | value op value
type markerParser struct {
	input string
	pos   int
	env   MarkerEnv
}

// peekWord reports whether the next token is the given keyword.
func (p *markerParser) peekWord(word string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.input[p.pos:], word) {
		return false
	}
	next := p.pos + len(word)
	return next >= len(p.input) || !isIdentByte(p.input[next])
}

func (p *markerParser) consumeWord(word string) {
	p.skipSpace()
	p.pos += len(word)
}

func (p *markerParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *markerParser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.peekWord("or") {
		p.consumeWord("or")
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || rhs
	}
	return result, nil
}

func (p *markerParser) parseAnd() (bool, error) {
	result, err := p.parseFactor()
	if err != nil {
		return false, err
	}
	for p.peekWord("and") {
		p.consumeWord("and")
		rhs, err := p.parseFactor()
		if err != nil {
			return false, err
		}
		result = result && rhs
	}
	return result, nil
}

func (p *markerParser) parseFactor() (bool, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return false, zerr.With(zerr.Wrap(errMarkerSyntax, "unclosed parenthesis"), "marker", p.input)
		}
		p.pos++
		return result, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (bool, error) {
	lhs, lhsVar, err := p.parseValue()
	if err != nil {
		return false, err
	}
	op, err := p.parseOperator()
	if err != nil {
		return false, err
	}
	rhs, rhsVar, err := p.parseValue()
	if err != nil {
		return false, err
	}
	return p.compare(lhs, lhsVar, op, rhs, rhsVar)
}

// parseValue returns the resolved value and the variable name it came
// from ("" for string literals).
func (p *markerParser) parseValue() (string, string, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return "", "", zerr.With(zerr.Wrap(errMarkerSyntax, "expected value"), "marker", p.input)
	}

	if c := p.input[p.pos]; c == '\'' || c == '"' {
		end := strings.IndexByte(p.input[p.pos+1:], c)
		if end < 0 {
			return "", "", zerr.With(zerr.Wrap(errMarkerSyntax, "unterminated string"), "marker", p.input)
		}
		lit := p.input[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return lit, "", nil
	}

	start := p.pos
	for p.pos < len(p.input) && (isIdentByte(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[start:p.pos]
	if name == "" {
		return "", "", zerr.With(zerr.Wrap(errMarkerSyntax, "expected value"), "marker", p.input)
	}
	value, err := p.lookup(name)
	if err != nil {
		return "", "", err
	}
	return value, name, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *markerParser) lookup(name string) (string, error) {
	switch name {
	case "python_version":
		return p.env.PythonVersion, nil
	case "python_full_version":
		return p.env.PythonFullVersion, nil
	case "os_name", "os.name":
		return p.env.OSName, nil
	case "sys_platform", "sys.platform":
		return p.env.SysPlatform, nil
	case "platform_system", "platform.system":
		return p.env.PlatformSystem, nil
	case "platform_machine", "platform.machine":
		// Sentinel resolved during comparison; one target may accept
		// several machine strings.
		return "", nil
	case "implementation_name", "platform_python_implementation":
		if name == "platform_python_implementation" {
			if p.env.ImplementationName == "cpython" {
				return "CPython", nil
			}
			return p.env.ImplementationName, nil
		}
		return p.env.ImplementationName, nil
	case "platform_release", "platform_version":
		return "", nil
	case "extra":
		return "", nil
	}
	return "", zerr.With(zerr.Wrap(errMarkerSyntax, "unknown marker variable"), "variable", name)
}

var markerOperators = []string{"===", "==", "!=", "<=", ">=", "<", ">", "~=", "not in", "in"}

func (p *markerParser) parseOperator() (string, error) {
	p.skipSpace()
	rest := p.input[p.pos:]
	for _, op := range markerOperators {
		if strings.HasPrefix(rest, op) {
			p.pos += len(op)
			return op, nil
		}
	}
	return "", zerr.With(zerr.Wrap(errMarkerSyntax, "expected comparison operator"), "marker", p.input)
}

func (p *markerParser) compare(lhs, lhsVar, op, rhs, rhsVar string) (bool, error) {
	// platform_machine and extra compare against sets, not scalars.
	if lhsVar == "platform_machine" || lhsVar == "platform.machine" {
		return compareSet(p.env.PlatformMachines, op, rhs)
	}
	if rhsVar == "platform_machine" || rhsVar == "platform.machine" {
		return compareSet(p.env.PlatformMachines, flipOperator(op), lhs)
	}
	if lhsVar == "extra" {
		return compareSet(p.env.Extras, op, rhs)
	}
	if rhsVar == "extra" {
		return compareSet(p.env.Extras, flipOperator(op), lhs)
	}

	if isVersionVariable(lhsVar) || isVersionVariable(rhsVar) {
		if ok, err := compareVersions(lhs, op, rhs); err == nil {
			return ok, nil
		}
		// Fall through to string comparison for non-version operands
		// such as `python_version in "2.7 3.4"`.
	}
	return compareStrings(lhs, op, rhs)
}

func isVersionVariable(name string) bool {
	return name == "python_version" || name == "python_full_version"
}

func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	}
	return op
}

func compareVersions(lhs, op, rhs string) (bool, error) {
	if op == "in" || op == "not in" {
		return false, errMarkerSyntax
	}
	v, err := pep440.Parse(lhs)
	if err != nil {
		return false, err
	}
	spec, err := pep440.NewSpecifiers(op + rhs)
	if err != nil {
		return false, err
	}
	return spec.Check(v), nil
}

func compareStrings(lhs, op, rhs string) (bool, error) {
	switch op {
	case "==", "===":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case ">":
		return lhs > rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">=":
		return lhs >= rhs, nil
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}
	return false, zerr.With(zerr.Wrap(errMarkerSyntax, "unsupported operator"), "operator", op)
}

func compareSet(values []string, op, operand string) (bool, error) {
	switch op {
	case "==", "===":
		return slices.Contains(values, operand), nil
	case "!=":
		return !slices.Contains(values, operand), nil
	case "in":
		// `platform_machine in "x86_64 AMD64"` style membership.
		for _, v := range values {
			if strings.Contains(operand, v) {
				return true, nil
			}
		}
		return false, nil
	case "not in":
		ok, _ := compareSet(values, "in", operand)
		return !ok, nil
	}
	return false, zerr.With(zerr.Wrap(errMarkerSyntax, "unsupported operator for set variable"), "operator", op)
}
