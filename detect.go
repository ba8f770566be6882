package transmute

import "strings"

// DetectedFormat tags the classification produced by [Detect].
type DetectedFormat string

const (
	DetectedEmpty       DetectedFormat = "empty"
	DetectedWhitespace  DetectedFormat = "whitespace"
	DetectedJWT         DetectedFormat = "jwt"
	DetectedBase64      DetectedFormat = "base64"
	DetectedJSON        DetectedFormat = "json"
	DetectedURL         DetectedFormat = "url"
	DetectedURLEncoded  DetectedFormat = "urlencoded"
	DetectedUUID        DetectedFormat = "uuid"
	DetectedMD5         DetectedFormat = "md5"
	DetectedSHA1        DetectedFormat = "sha1"
	DetectedSHA256      DetectedFormat = "sha256"
	DetectedTimestamp   DetectedFormat = "timestamp"
	DetectedTimestampMS DetectedFormat = "timestamp-ms"
	DetectedHTML        DetectedFormat = "html"
	DetectedXML         DetectedFormat = "xml"
	DetectedEmail       DetectedFormat = "email"
	DetectedHexColor    DetectedFormat = "hex-color"
	DetectedIP          DetectedFormat = "ip"
	DetectedSQL         DetectedFormat = "sql"
	DetectedNumber      DetectedFormat = "number"
	DetectedPhone       DetectedFormat = "phone"
	DetectedText        DetectedFormat = "text"
)

// DetectionResult reports the most likely format of an input string.
//
// Confidence is a relative ranking in [0,1], not a calibrated probability:
// matchers with a low false-positive rate (UUID, JWT) report high values,
// catch-alls (plain text) report low ones, and a matcher that recognizes
// its format but finds it malformed reports lower still rather than
// declining. SuggestedTools and ChainSuggestions carry opaque tool-registry
// identifiers for the caller to resolve.
type DetectionResult struct {
	Type             DetectedFormat
	Confidence       float64
	Description      string
	SuggestedTools   []string
	Metadata         map[string]any
	ChainSuggestions []string
}

// matchOrder is the detection cascade. The order is part of the contract:
// the first matcher to claim the input wins and later ones are never
// consulted, which is how overlapping classes (a JWT also matches the
// Base64 alphabet, a hash is also a number-free Base64 string) resolve
// deterministically.
var matchOrder = []func(string) (DetectionResult, bool){
	matchJWT,
	matchBase64,
	matchJSON,
	matchURL,
	matchURLEncoded,
	matchUUID,
	matchMD5,
	matchSHA1,
	matchSHA256,
	matchTimestampSeconds,
	matchTimestampMillis,
	matchHTML,
	matchXML,
	matchEmail,
	matchHexColor,
	matchIP,
	matchSQL,
	matchNumber,
	matchPhone,
	matchText,
}

// Detect classifies an input string. It never fails: unmatched input is
// plain text, and a speculative parse inside a matcher that errors simply
// means that matcher declines. Surrounding whitespace is ignored except for
// the empty and whitespace-only classifications.
func Detect(input string) (res DetectionResult) {
	// A matcher panic degrades to the default classification.
	defer func() {
		if recover() != nil {
			res = DetectionResult{Type: DetectedText, Confidence: 0.4, Description: "Plain text"}
		}
	}()

	if input == "" {
		return DetectionResult{Type: DetectedEmpty, Confidence: 1, Description: "Empty input"}
	}
	s := strings.TrimSpace(input)
	if s == "" {
		return DetectionResult{Type: DetectedWhitespace, Confidence: 1, Description: "Whitespace only"}
	}

	for _, match := range matchOrder {
		if r, ok := match(s); ok {
			return r
		}
	}
	return DetectionResult{Type: DetectedText, Confidence: 0.4, Description: "Plain text"}
}
