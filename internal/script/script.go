// Package script locates and replaces the JSON configuration payload
// embedded in a host PAC script.
//
// The payload is a JSON object literal delimited by sentinel comment
// markers, so it can be found and swapped without parsing the host
// script's grammar. The engine never interprets the script itself.
package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Sentinel markers delimiting the embedded payload. They are JS block
// comments so the host script stays executable.
const (
	BeginMarker = "/*@pacconf-begin@*/"
	EndMarker   = "/*@pacconf-end@*/"
)

// Errors returned by payload operations.
var (
	// ErrMarkerNotFound indicates a missing begin or end marker.
	ErrMarkerNotFound = errors.New("payload marker not found")

	// ErrMalformedMarkers indicates duplicated or out-of-order markers.
	ErrMalformedMarkers = errors.New("payload markers malformed")

	// ErrInvalidPayload indicates the delimited region is not valid JSON.
	ErrInvalidPayload = errors.New("embedded payload is not valid JSON")
)

// Extract returns the raw JSON payload between the sentinel markers.
func Extract(scriptText string) ([]byte, error) {
	begin, end, err := locate(scriptText)
	if err != nil {
		return nil, err
	}

	payload := strings.TrimSpace(scriptText[begin:end])
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("%w: %d bytes between markers", ErrInvalidPayload, len(payload))
	}
	return []byte(payload), nil
}

// Inject returns the script text with the embedded payload replaced.
// The payload is pretty-printed for stable diffs of the host script.
func Inject(scriptText string, payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", fmt.Errorf("%w: refusing to inject", ErrInvalidPayload)
	}

	begin, end, err := locate(scriptText)
	if err != nil {
		return "", err
	}

	formatted := strings.TrimSpace(string(pretty.Pretty(payload)))

	var b strings.Builder
	b.Grow(len(scriptText) + len(formatted))
	b.WriteString(scriptText[:begin])
	b.WriteString("\n")
	b.WriteString(formatted)
	b.WriteString("\n")
	b.WriteString(scriptText[end:])
	return b.String(), nil
}

// Probe reads a single value from a raw payload by dot-separated path
// without decoding the whole document.
func Probe(payload []byte, path string) (gjson.Result, bool) {
	res := gjson.GetBytes(payload, path)
	return res, res.Exists()
}

// Patch sets a single value in a raw payload by dot-separated path
// without decoding the whole document.
func Patch(payload []byte, path string, value any) ([]byte, error) {
	out, err := sjson.SetBytes(payload, path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to patch payload at %q: %w", path, err)
	}
	return out, nil
}

// locate finds the byte offsets of the payload region: just past the
// begin marker through the start of the end marker.
func locate(scriptText string) (begin, end int, err error) {
	beginIdx := strings.Index(scriptText, BeginMarker)
	if beginIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMarkerNotFound, BeginMarker)
	}
	if strings.Contains(scriptText[beginIdx+len(BeginMarker):], BeginMarker) {
		return 0, 0, fmt.Errorf("%w: duplicate %s", ErrMalformedMarkers, BeginMarker)
	}

	endIdx := strings.Index(scriptText, EndMarker)
	if endIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMarkerNotFound, EndMarker)
	}
	if strings.Contains(scriptText[endIdx+len(EndMarker):], EndMarker) {
		return 0, 0, fmt.Errorf("%w: duplicate %s", ErrMalformedMarkers, EndMarker)
	}
	if endIdx < beginIdx {
		return 0, 0, fmt.Errorf("%w: end marker precedes begin marker", ErrMalformedMarkers)
	}

	return beginIdx + len(BeginMarker), endIdx, nil
}
