// Package extract turns a free-text customer message into structured cap requirements.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultQuantity is used when the message names no quantity.
const DefaultQuantity = 144

// Logo is one decoration the customer asked for.
type Logo struct {
	Type          string `json:"type"`
	Location      string `json:"location"`
	Size          string `json:"size"`
	HasMoldCharge bool   `json:"hasMoldCharge"`
}

// Accessory is a position-less add-on such as a label or hang tag.
type Accessory struct {
	Type string `json:"type"`
}

// Requirements is derived from one message and consumed immediately by the
// quote builder. It is never stored as-is.
type Requirements struct {
	Quantity    int         `json:"quantity"`
	Color       string      `json:"color"`
	Colors      []string    `json:"colors"`
	Size        string      `json:"size"`
	Fabric      string      `json:"fabric,omitempty"`
	PanelCount  *int        `json:"panelCount"`
	Closure     *string     `json:"closure"`
	Logos       []Logo      `json:"logoRequirements"`
	Accessories []Accessory `json:"accessoriesRequirements"`
}

// Analyze parses a customer message. It never fails: every field has a default.
func Analyze(message string) Requirements {
	lower := strings.ToLower(message)
	color, colors := extractColors(lower)

	return Requirements{
		Quantity:    extractQuantity(lower),
		Color:       color,
		Colors:      colors,
		Size:        extractSize(lower),
		Fabric:      extractFabric(lower),
		PanelCount:  extractPanelCount(lower),
		Closure:     extractClosure(lower),
		Logos:       extractLogos(lower),
		Accessories: extractAccessories(lower),
	}
}

var quantityPattern = regexp.MustCompile(`(\d+(?:,\d+)?)\s*(?:pcs|caps|pieces|units)\b`)

func extractQuantity(lower string) int {
	m := quantityPattern.FindStringSubmatch(lower)
	if m == nil {
		return DefaultQuantity
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || n <= 0 {
		return DefaultQuantity
	}
	return n
}

var colorNames = []string{
	"black", "white", "navy", "royal blue", "light blue", "blue", "red", "maroon", "burgundy",
	"green", "forest green", "olive", "khaki", "tan", "brown", "charcoal", "grey", "gray",
	"heather grey", "orange", "yellow", "gold", "pink", "purple", "silver", "cream", "beige",
}

var (
	colorAlternation = buildColorAlternation()
	twoColorPattern  = regexp.MustCompile(`\b(` + colorAlternation + `)\s*/\s*(` + colorAlternation + `)\b`)
	oneColorPattern  = regexp.MustCompile(`\b(` + colorAlternation + `)\b`)
)

// buildColorAlternation lists multi-word names first so "royal blue" wins over "blue".
func buildColorAlternation() string {
	names := make([]string, 0, len(colorNames))
	for _, n := range colorNames {
		if strings.Contains(n, " ") {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	for _, n := range colorNames {
		if !strings.Contains(n, " ") {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	return strings.Join(names, "|")
}

func extractColors(lower string) (string, []string) {
	if m := twoColorPattern.FindStringSubmatch(lower); m != nil {
		a, b := titleCase(m[1]), titleCase(m[2])
		return a + "/" + b, []string{a, b}
	}
	if m := oneColorPattern.FindStringSubmatch(lower); m != nil {
		c := titleCase(m[1])
		return c, []string{c}
	}
	return "Black", []string{"Black"}
}

var (
	sizeWords = []struct {
		pattern *regexp.Regexp
		size    string
	}{
		{regexp.MustCompile(`\b(?:xxl|2xl|xx-large)\b`), "XXL"},
		{regexp.MustCompile(`\b(?:x-large|xlarge|xl)\b`), "X-Large"},
		{regexp.MustCompile(`\blarge\b`), "Large"},
		{regexp.MustCompile(`\bmedium\b`), "Medium"},
		{regexp.MustCompile(`\bsmall\b`), "Small"},
	}
	centimeterPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*cm\b`)
)

func extractSize(lower string) string {
	for _, w := range sizeWords {
		if w.pattern.MatchString(lower) {
			return w.size
		}
	}
	if m := centimeterPattern.FindStringSubmatch(lower); m != nil {
		cm, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return sizeFromCentimeters(cm)
		}
	}
	return "Large"
}

func sizeFromCentimeters(cm float64) string {
	switch {
	case cm >= 58:
		return "Large"
	case cm >= 56:
		return "Medium"
	default:
		return "Small"
	}
}

func extractFabric(lower string) string {
	has := func(s string) bool { return strings.Contains(lower, s) }
	switch {
	case has("polyester") && has("laser cut"):
		return "Polyester/Laser Cut"
	case has("laser cut"):
		return "Laser Cut"
	case has("acrylic"):
		return "Acrylic"
	case has("suede"):
		return "Suede Cotton"
	case has("genuine leather"), has("leather crown"), has("leather fabric"):
		return "Genuine Leather"
	case has("camo"):
		return "Camo"
	case has("trucker mesh"), has("mesh back"), has("mesh"):
		return "Trucker Mesh"
	case has("cotton twill"):
		return "Cotton Twill"
	case has("polyester"):
		return "Polyester"
	}
	return ""
}

var closureKeywords = []struct {
	keywords []string
	closure  string
}{
	{[]string{"flexfit", "flex fit"}, "Flexfit"},
	{[]string{"fitted"}, "Fitted"},
	{[]string{"snapback", "snap back", "snap-back"}, "Snapback"},
	{[]string{"strapback", "strap back", "strap-back"}, "Strapback"},
	{[]string{"buckle"}, "Metal Buckle"},
	{[]string{"velcro", "hook and loop"}, "Velcro"},
}

func extractClosure(lower string) *string {
	for _, c := range closureKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				closure := c.closure
				return &closure
			}
		}
	}
	return nil
}

var (
	panelDigitPattern = regexp.MustCompile(`\b([3-9])\s*-?\s*panels?\b`)
	panelWordPattern  = regexp.MustCompile(`\b(three|four|five|six|seven|eight)\s*-?\s*panels?\b`)
	panelWords        = map[string]int{"three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8}
)

func extractPanelCount(lower string) *int {
	if m := panelDigitPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &n
	}
	if m := panelWordPattern.FindStringSubmatch(lower); m != nil {
		n := panelWords[m[1]]
		return &n
	}
	return nil
}

func extractAccessories(lower string) []Accessory {
	out := make([]Accessory, 0)
	has := func(s string) bool { return strings.Contains(lower, s) }
	if has("label") {
		out = append(out, Accessory{Type: "Label"})
	}
	if has("hang tag") || has("hangtag") {
		out = append(out, Accessory{Type: "Hang Tag"})
	}
	if has("sticker") || has("hologram") {
		out = append(out, Accessory{Type: "Sticker"})
	}
	if has("swing tag") {
		out = append(out, Accessory{Type: "Swing Tag"})
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
