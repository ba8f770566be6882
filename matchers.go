package transmute

import (
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	jwtPattern      = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	urlPattern      = regexp.MustCompile(`^(?i)(https?|ftp|wss?)://\S+$`)
	pctPattern      = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)
	hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9(][0-9\s().-]{5,18}[0-9]$`)
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	htmlPattern     = regexp.MustCompile(`(?i)<(!doctype\s+html|html|head|body|div|span|p|a|script|style|br|img|table|tr|td|ul|ol|li|h[1-6])\b[^>]*>`)

	sqlStartPattern = regexp.MustCompile(`(?i)^(select|insert|update|delete|create|drop|alter|truncate|with|explain)\b`)
	sqlShapes       = []*regexp.Regexp{
		regexp.MustCompile(`(?is)^select\b.+\bfrom\b`),
		regexp.MustCompile(`(?is)^insert\s+into\b`),
		regexp.MustCompile(`(?is)^update\b.+\bset\b`),
		regexp.MustCompile(`(?is)^delete\s+from\b`),
		regexp.MustCompile(`(?is)^create\s+(table|index|database|view|schema)\b`),
		regexp.MustCompile(`(?is)^drop\s+(table|index|database|view|schema)\b`),
		regexp.MustCompile(`(?is)^alter\s+table\b`),
		regexp.MustCompile(`(?is)^truncate\s+table\b`),
		regexp.MustCompile(`(?is)^with\b.+\bas\s*\(`),
	}
)

func matchJWT(s string) (DetectionResult, bool) {
	if !jwtPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	r := DetectionResult{
		Type:           DetectedJWT,
		Confidence:     0.95,
		Description:    "JSON Web Token",
		SuggestedTools: []string{"jwt-decoder"},
	}
	// Pull the algorithm out of the header segment when it decodes cleanly.
	var hdr struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.Split(s, ".")[0]); err == nil {
		if json.Unmarshal(b, &hdr) == nil && hdr.Alg != "" {
			r.Metadata = map[string]any{"algorithm": hdr.Alg}
		}
	}
	return r, true
}

// matchBase64 claims standard-alphabet base64. The URL-safe alphabet is
// deliberately out of scope: admitting '-' and '_' would swallow UUIDs,
// dates and ordinary hyphenated tokens, and the one base64url shape worth
// detecting is the JWT, which the cascade has already tried. It also
// declines the overlaps that later matchers classify with more precision:
// all-digit strings (timestamps, numbers), hash-length pure hex, and text
// that parses as JSON.
func matchBase64(s string) (DetectionResult, bool) {
	if len(s) < 8 || len(s)%4 == 1 || !base64Pattern.MatchString(s) {
		return DetectionResult{}, false
	}
	if allDigits(s) {
		return DetectionResult{}, false
	}
	if hexOnly(s) && (len(s) == 32 || len(s) == 40 || len(s) == 64) {
		return DetectionResult{}, false
	}
	if json.Valid([]byte(s)) {
		return DetectionResult{}, false
	}

	decoded, ok := base64Decode(s)
	if !ok {
		return DetectionResult{}, false
	}

	r := DetectionResult{
		Type:           DetectedBase64,
		SuggestedTools: []string{"base64-decode"},
		Metadata:       map[string]any{"decodedBytes": len(decoded)},
	}
	text := utf8.Valid(decoded) && printableText(decoded)
	switch {
	case text && !asciiOnly(decoded):
		// Multi-byte content is rarely coincidental.
		r.Confidence = 0.85
		r.Description = "Base64-encoded Unicode text"
	case text:
		r.Confidence = 0.8
		r.Description = "Base64-encoded text"
	default:
		r.Confidence = 0.6
		r.Description = "Base64-encoded binary data"
	}

	switch {
	case len(decoded) > 0 && (decoded[0] == '{' || decoded[0] == '[') && json.Valid(decoded):
		r.ChainSuggestions = append(r.ChainSuggestions, "base64-decode then json-formatter")
		if r.Confidence < 0.85 {
			r.Confidence = 0.85
		}
	case jwtPattern.Match(decoded):
		r.ChainSuggestions = append(r.ChainSuggestions, "base64-decode then jwt-decoder")
	}
	return r, true
}

func matchJSON(s string) (DetectionResult, bool) {
	if s[0] != '{' && s[0] != '[' {
		return DetectionResult{}, false
	}
	if json.Valid([]byte(s)) {
		root := "object"
		if s[0] == '[' {
			root = "array"
		}
		return DetectionResult{
			Type:           DetectedJSON,
			Confidence:     0.95,
			Description:    "JSON data",
			SuggestedTools: []string{"json-formatter", "json-to-yaml", "json-to-csv"},
			Metadata:       map[string]any{"valid": true, "root": root},
		}, true
	}
	// Looks structural but does not parse; claim it with low confidence
	// rather than letting it fall through to plain text.
	return DetectionResult{
		Type:           DetectedJSON,
		Confidence:     0.35,
		Description:    "Malformed JSON",
		SuggestedTools: []string{"json-formatter"},
		Metadata:       map[string]any{"valid": false},
	}, true
}

func matchURL(s string) (DetectionResult, bool) {
	if !urlPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return DetectionResult{}, false
	}
	md := map[string]any{"scheme": strings.ToLower(u.Scheme), "host": u.Host}
	if u.RawQuery != "" {
		md["queryParams"] = len(u.Query())
	}
	return DetectionResult{
		Type:           DetectedURL,
		Confidence:     0.9,
		Description:    "URL",
		SuggestedTools: []string{"url-parser"},
		Metadata:       md,
	}, true
}

func matchURLEncoded(s string) (DetectionResult, bool) {
	if !pctPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	decoded, err := url.QueryUnescape(s)
	if err != nil || decoded == s {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedURLEncoded,
		Confidence:     0.85,
		Description:    "URL-encoded text",
		SuggestedTools: []string{"url-decoder"},
		Metadata:       map[string]any{"decoded": preview(decoded)},
	}, true
}

// matchUUID requires the canonical dashed form; undashed 128-bit hex falls
// through to the MD5 matcher.
func matchUUID(s string) (DetectionResult, bool) {
	if !uuidPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedUUID,
		Confidence:     0.95,
		Description:    fmt.Sprintf("UUID version %d", u.Version()),
		SuggestedTools: []string{"uuid-validator"},
		Metadata:       map[string]any{"version": int(u.Version()), "variant": u.Variant().String()},
	}, true
}

func matchMD5(s string) (DetectionResult, bool)    { return matchHash(s, 32, DetectedMD5, "MD5 hash", 0.85) }
func matchSHA1(s string) (DetectionResult, bool)   { return matchHash(s, 40, DetectedSHA1, "SHA-1 hash", 0.85) }
func matchSHA256(s string) (DetectionResult, bool) { return matchHash(s, 64, DetectedSHA256, "SHA-256 hash", 0.9) }

func matchHash(s string, n int, typ DetectedFormat, desc string, conf float64) (DetectionResult, bool) {
	if len(s) != n || !hexOnly(s) {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           typ,
		Confidence:     conf,
		Description:    desc,
		SuggestedTools: []string{"hash-identifier"},
		Metadata:       map[string]any{"bits": n * 4},
	}, true
}

// Timestamp plausibility window: 2001-09-09 (the first 10-digit second
// count) through 2100-01-01. Digit strings outside it fall through to the
// number matcher.
const (
	minUnixSeconds = 1_000_000_000
	maxUnixSeconds = 4_102_444_800
)

func matchTimestampSeconds(s string) (DetectionResult, bool) {
	if len(s) != 10 || !allDigits(s) {
		return DetectionResult{}, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < minUnixSeconds || n > maxUnixSeconds {
		return DetectionResult{}, false
	}
	t := time.Unix(n, 0).UTC()
	return DetectionResult{
		Type:           DetectedTimestamp,
		Confidence:     0.8,
		Description:    "Unix timestamp (seconds)",
		SuggestedTools: []string{"timestamp-converter"},
		Metadata:       map[string]any{"iso": t.Format(time.RFC3339), "year": t.Year()},
	}, true
}

func matchTimestampMillis(s string) (DetectionResult, bool) {
	if len(s) != 13 || !allDigits(s) {
		return DetectionResult{}, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n/1000 < minUnixSeconds || n/1000 > maxUnixSeconds {
		return DetectionResult{}, false
	}
	t := time.UnixMilli(n).UTC()
	return DetectionResult{
		Type:           DetectedTimestampMS,
		Confidence:     0.8,
		Description:    "Unix timestamp (milliseconds)",
		SuggestedTools: []string{"timestamp-converter"},
		Metadata:       map[string]any{"iso": t.Format(time.RFC3339), "year": t.Year()},
	}, true
}

func matchHTML(s string) (DetectionResult, bool) {
	if !htmlPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	lower := strings.ToLower(s)
	conf, desc := 0.75, "HTML fragment"
	if strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html") {
		conf, desc = 0.9, "HTML document"
	}
	return DetectionResult{
		Type:           DetectedHTML,
		Confidence:     conf,
		Description:    desc,
		SuggestedTools: []string{"html-formatter"},
	}, true
}

func matchXML(s string) (DetectionResult, bool) {
	if !strings.HasPrefix(s, "<") {
		return DetectionResult{}, false
	}
	root, wellFormed := xmlWellFormed(s)
	if strings.HasPrefix(s, "<?xml") {
		r := DetectionResult{
			Type:           DetectedXML,
			Confidence:     0.9,
			Description:    "XML document",
			SuggestedTools: []string{"xml-formatter", "xml-to-json"},
		}
		if !wellFormed {
			r.Confidence = 0.75
			r.Description = "Malformed XML"
		} else if root != "" {
			r.Metadata = map[string]any{"root": root}
		}
		return r, true
	}
	if !wellFormed {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedXML,
		Confidence:     0.85,
		Description:    "XML document",
		SuggestedTools: []string{"xml-formatter", "xml-to-json"},
		Metadata:       map[string]any{"root": root},
	}, true
}

// xmlWellFormed scans for a single balanced root element. It deliberately
// re-implements a minimal token walk instead of reusing the converter:
// detection and conversion stay independent.
func xmlWellFormed(s string) (root string, ok bool) {
	dec := xml.NewDecoder(strings.NewReader(s))
	depth, seenRoot := 0, false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if seenRoot {
					return "", false
				}
				seenRoot = true
				root = t.Name.Local
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return "", false
			}
		}
	}
	return root, seenRoot && depth == 0
}

func matchEmail(s string) (DetectionResult, bool) {
	if !emailPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	at := strings.LastIndex(s, "@")
	return DetectionResult{
		Type:           DetectedEmail,
		Confidence:     0.9,
		Description:    "Email address",
		SuggestedTools: []string{"email-validator"},
		Metadata:       map[string]any{"domain": s[at+1:]},
	}, true
}

func matchHexColor(s string) (DetectionResult, bool) {
	if !hexColorPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedHexColor,
		Confidence:     0.9,
		Description:    "Hex color code",
		SuggestedTools: []string{"color-converter"},
		Metadata:       map[string]any{"digits": len(s) - 1},
	}, true
}

func matchIP(s string) (DetectionResult, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return DetectionResult{}, false
	}
	version, desc := 4, "IPv4 address"
	if addr.Is6() && !addr.Is4In6() {
		version, desc = 6, "IPv6 address"
	}
	return DetectionResult{
		Type:           DetectedIP,
		Confidence:     0.9,
		Description:    desc,
		SuggestedTools: []string{"ip-lookup"},
		Metadata:       map[string]any{"version": version},
	}, true
}

func matchSQL(s string) (DetectionResult, bool) {
	if !sqlStartPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	for _, shape := range sqlShapes {
		if shape.MatchString(s) {
			return DetectionResult{
				Type:           DetectedSQL,
				Confidence:     0.85,
				Description:    "SQL statement",
				SuggestedTools: []string{"sql-formatter"},
			}, true
		}
	}
	// A leading keyword without the statement shape behind it.
	return DetectionResult{
		Type:           DetectedSQL,
		Confidence:     0.5,
		Description:    "Possible SQL statement",
		SuggestedTools: []string{"sql-formatter"},
	}, true
}

func matchNumber(s string) (DetectionResult, bool) {
	isInt := intPattern.MatchString(s)
	if !isInt && !floatPattern.MatchString(s) {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedNumber,
		Confidence:     0.7,
		Description:    "Number",
		SuggestedTools: []string{"number-base-converter"},
		Metadata:       map[string]any{"integer": isInt},
	}, true
}

func matchPhone(s string) (DetectionResult, bool) {
	if !phonePattern.MatchString(s) || digitCount(s) < 7 {
		return DetectionResult{}, false
	}
	// ISO dates share the digits-and-dashes shape; let them fall through.
	if isoDatePattern.MatchString(s) {
		return DetectionResult{}, false
	}
	return DetectionResult{
		Type:           DetectedPhone,
		Confidence:     0.6,
		Description:    "Phone number",
		SuggestedTools: []string{"phone-formatter"},
	}, true
}

// matchText is the cascade's floor; it always claims the input.
func matchText(s string) (DetectionResult, bool) {
	return DetectionResult{
		Type:           DetectedText,
		Confidence:     0.4,
		Description:    "Plain text",
		SuggestedTools: []string{"word-counter"},
		Metadata:       map[string]any{"length": len(s), "words": len(strings.Fields(s))},
	}, true
}

// --- Matcher helpers ---

func base64Decode(s string) ([]byte, bool) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	return nil, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func hexOnly(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return s != ""
}

func asciiOnly(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func printableText(b []byte) bool {
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func preview(s string) string {
	const max = 48
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
