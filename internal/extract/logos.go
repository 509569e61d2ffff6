package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Positions a logo can occupy on the cap.
const (
	PositionFront     = "Front"
	PositionBack      = "Back"
	PositionLeft      = "Left"
	PositionRight     = "Right"
	PositionUnderBill = "Under Bill"
	PositionUpperBill = "Upper Bill"
)

// Logo decoration methods recognised in messages.
const (
	Method3DEmbroidery   = "3D Embroidery"
	MethodFlatEmbroidery = "Flat Embroidery"
	MethodRubberPatch    = "Rubber Patch"
	MethodLeatherPatch   = "Leather Patch"
	MethodWovenPatch     = "Woven Patch"
	MethodScreenPrint    = "Screen Print"
	MethodSublimation    = "Sublimation"
)

// Match priorities: lower wins when two matches target one position.
const (
	priorityMethodAndPosition = 1
	priorityMethodOnly        = 2
	priorityBareEmbroidery    = 3
)

var methodKeywords = []struct {
	method   string
	keywords []string
}{
	{Method3DEmbroidery, []string{"3d embroidery", "3d embroidered", "3d puff", "puff embroidery", "raised embroidery"}},
	{MethodFlatEmbroidery, []string{"flat embroidery", "flat embroidered", "flat stitch"}},
	{MethodRubberPatch, []string{"rubber patch", "pvc patch", "silicone patch"}},
	{MethodLeatherPatch, []string{"leather patch"}},
	{MethodWovenPatch, []string{"woven patch"}},
	{MethodScreenPrint, []string{"screen print", "screen-print", "screenprint"}},
	{MethodSublimation, []string{"sublimation", "sublimated"}},
}

var positionKeywords = []struct {
	position string
	keywords []string
}{
	{PositionUnderBill, []string{"under bill", "underbill", "under the bill", "under visor", "undervisor", "under the visor"}},
	{PositionUpperBill, []string{"upper bill", "top of the bill", "top of bill", "on the bill", "on bill", "bill top"}},
	{PositionFront, []string{"front"}},
	{PositionBack, []string{"back"}},
	{PositionLeft, []string{"left side", "left"}},
	{PositionRight, []string{"right side", "right"}},
}

// logoPattern is one entry of the ordered pattern list evaluated against a message.
type logoPattern struct {
	method   string
	position string // empty when the position is inferred
	re       *regexp.Regexp
	priority int
}

type logoMatch struct {
	method   string
	position string
	start    int
	end      int
	priority int
}

var logoPatterns = buildLogoPatterns()

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func buildLogoPatterns() []logoPattern {
	const (
		methodThenPosition = `(?:%s)(?:\s+(?:logo|logos|design))?\s*(?:on|at|for|in)?\s*(?:the)?\s*\b(?:%s)\b`
		positionThenMethod = `\b(?:%s)\b(?:\s+(?:logo|logos|design))?\s*[:\-]?\s*(?:with|in|as|using)?\s*(?:an?)?\s*(?:%s)`
	)

	patterns := make([]logoPattern, 0)
	for _, m := range methodKeywords {
		for _, p := range positionKeywords {
			mAlt, pAlt := alternation(m.keywords), alternation(p.keywords)
			patterns = append(patterns,
				logoPattern{m.method, p.position, regexp.MustCompile(fmt.Sprintf(methodThenPosition, mAlt, pAlt)), priorityMethodAndPosition},
				logoPattern{m.method, p.position, regexp.MustCompile(fmt.Sprintf(positionThenMethod, pAlt, mAlt)), priorityMethodAndPosition},
			)
		}
	}
	for _, m := range methodKeywords {
		patterns = append(patterns, logoPattern{
			method:   m.method,
			re:       regexp.MustCompile(`(?:` + alternation(m.keywords) + `)`),
			priority: priorityMethodOnly,
		})
	}
	return patterns
}

var bareEmbroideryPattern = regexp.MustCompile(`\bembroider(?:y|ed)\b`)

// qualifiedEmbroidery lists prefixes that make an "embroidery" mention a
// named method rather than the bare fallback.
var qualifiedEmbroidery = []string{"3d ", "flat ", "puff ", "raised "}

func extractLogos(lower string) []Logo {
	matches := collectLogoMatches(lower)

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority < matches[j].priority
		}
		return matches[i].start < matches[j].start
	})

	taken := make(map[string]bool)
	placedMethods := make(map[string]bool)
	logos := make([]Logo, 0)
	for _, m := range matches {
		if m.priority > priorityMethodAndPosition && placedMethods[m.method] {
			continue
		}
		position := m.position
		if position == "" {
			position = inferPosition(lower, m.end)
		}
		if taken[position] {
			continue
		}
		taken[position] = true
		placedMethods[m.method] = true
		logos = append(logos, Logo{
			Type:          m.method,
			Location:      position,
			Size:          logoSize(lower, m.start, m.end, position),
			HasMoldCharge: m.method == MethodRubberPatch || m.method == MethodLeatherPatch,
		})
	}
	return logos
}

func collectLogoMatches(lower string) []logoMatch {
	matches := make([]logoMatch, 0)
	for _, p := range logoPatterns {
		for _, loc := range p.re.FindAllStringIndex(lower, -1) {
			matches = append(matches, logoMatch{p.method, p.position, loc[0], loc[1], p.priority})
		}
	}
	for _, loc := range bareEmbroideryPattern.FindAllStringIndex(lower, -1) {
		if isQualified(lower, loc[0]) {
			continue
		}
		matches = append(matches, logoMatch{MethodFlatEmbroidery, "", loc[0], loc[1], priorityBareEmbroidery})
	}
	return matches
}

func isQualified(lower string, start int) bool {
	prefix := lower[:start]
	for _, q := range qualifiedEmbroidery {
		if strings.HasSuffix(prefix, q) {
			return true
		}
	}
	return false
}

// inferPosition picks the first position named after a method mention in
// the same clause, then the first position named anywhere, then Front.
func inferPosition(lower string, from int) string {
	clause := lower[from:]
	if end := strings.IndexAny(clause, ".;\n"); end >= 0 {
		clause = clause[:end]
	}
	if pos, ok := firstPosition(clause); ok {
		return pos
	}
	if pos, ok := firstPosition(lower); ok {
		return pos
	}
	return PositionFront
}

type positionPattern struct {
	position string
	re       *regexp.Regexp
}

var positionPatterns = func() []positionPattern {
	out := make([]positionPattern, 0, len(positionKeywords))
	for _, p := range positionKeywords {
		out = append(out, positionPattern{p.position, regexp.MustCompile(`\b(?:` + alternation(p.keywords) + `)\b`)})
	}
	return out
}()

func firstPosition(text string) (string, bool) {
	best, bestAt := "", -1
	for _, p := range positionPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if isClosureBack(text, p.position, loc[0]) {
				continue
			}
			if bestAt == -1 || loc[0] < bestAt {
				best, bestAt = p.position, loc[0]
			}
			break
		}
	}
	return best, bestAt >= 0
}

// isClosureBack rejects "snap back" and "strap back", which name a closure.
func isClosureBack(text, position string, at int) bool {
	if position != PositionBack {
		return false
	}
	prefix := text[:at]
	return strings.HasSuffix(prefix, "snap ") || strings.HasSuffix(prefix, "strap ")
}

// DefaultLogoSize is the size used for a position when the customer names none.
func DefaultLogoSize(position string) string {
	switch position {
	case PositionFront, PositionUnderBill:
		return "Large"
	case PositionUpperBill:
		return "Medium"
	default:
		return "Small"
	}
}

var logoSizePattern = regexp.MustCompile(`\b(small|medium|large)\b`)

// logoSize looks for an explicit size word next to the logo mention: up to
// 20 characters before it, or later in the same clause. Both directions stop
// at clause boundaries so one logo's size never leaks onto its neighbour.
func logoSize(lower string, start, end int, position string) string {
	from := start - 20
	if from < 0 {
		from = 0
	}
	before := lower[:start]
	if cut := strings.LastIndexAny(before, ".;,\n"); cut+1 > from {
		from = cut + 1
	}
	if idx := strings.LastIndex(before, " and "); idx >= 0 && idx+len(" and ") > from {
		from = idx + len(" and ")
	}
	window := lower[from:end]
	rest := lower[end:]
	if cut := strings.IndexAny(rest, ".;,\n"); cut >= 0 {
		rest = rest[:cut]
	}
	if idx := strings.Index(rest, " and "); idx >= 0 {
		rest = rest[:idx]
	}
	window += rest
	if m := logoSizePattern.FindStringSubmatch(window); m != nil {
		return titleCase(m[1])
	}
	return DefaultLogoSize(position)
}
