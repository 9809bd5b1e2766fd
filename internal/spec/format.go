package spec

import (
	"fmt"
	"strings"

	"github.com/fbettag/llmdb/internal/provider"
)

// Format selects a textual spec form.
type Format int

const (
	// FormatAuto splits at whichever separator occurs first.
	FormatAuto Format = iota
	// FormatColon is provider:model.
	FormatColon
	// FormatAt is model@provider.
	FormatAt
)

func (f Format) String() string {
	switch f {
	case FormatColon:
		return "colon"
	case FormatAt:
		return "at"
	default:
		return "auto"
	}
}

// ParseFormat accepts auto, colon and at.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "colon", ":":
		return FormatColon, nil
	case "at", "@":
		return FormatAt, nil
	}
	return FormatAuto, fmt.Errorf("unknown spec format %q (want auto, colon or at)", s)
}

// Split separates input into its provider and model segments without consulting any catalog.
//
// Input is trimmed, so surrounding whitespace never belongs to either segment. Colon form splits
// at the first ':' and at form at the first '@'; the other segment keeps any further separators.
// Model ids carrying an '@' (Vertex "claude-3@20240229") therefore need the colon form. In auto
// mode the separator that occurs first decides the form, and an at-form provider segment that
// still holds a ':' is rejected as invalid_chars.
func Split(input string, f Format) (providerSeg, modelSeg string, used Format, err error) {
	s := strings.TrimSpace(input)
	colon := strings.Index(s, ":")
	at := strings.Index(s, "@")

	used = f
	if f == FormatAuto {
		switch {
		case colon < 0 && at < 0:
			return "", "", f, newError(KindInvalidFormat, input, "expected provider:model or model@provider")
		case colon >= 0 && (at < 0 || colon < at):
			used = FormatColon
		default:
			used = FormatAt
		}
	}

	switch used {
	case FormatColon:
		if colon < 0 {
			return "", "", used, newError(KindInvalidFormat, input, "expected provider:model")
		}
		providerSeg, modelSeg = s[:colon], s[colon+1:]
	case FormatAt:
		if at < 0 {
			return "", "", used, newError(KindInvalidFormat, input, "expected model@provider")
		}
		modelSeg, providerSeg = s[:at], s[at+1:]
	}

	if providerSeg == "" || modelSeg == "" {
		return "", "", used, newError(KindEmptySegment, input, "provider and model must both be non-empty")
	}
	if f == FormatAuto && used == FormatAt && strings.Contains(providerSeg, ":") {
		return "", "", used, newError(KindInvalidChars, input, "provider segment %q contains ':'", providerSeg)
	}
	return providerSeg, modelSeg, used, nil
}

// FormatSpec renders (p, id) as provider:model, or model@provider for FormatAt. Surrounding
// whitespace is trimmed from id, as Split would. An id holding an '@' is always rendered in colon
// form since the at form of it would split elsewhere.
func FormatSpec(p provider.ID, id string, f Format) string {
	id = strings.TrimSpace(id)
	if f == FormatAt && !strings.Contains(id, "@") {
		return id + "@" + string(p)
	}
	return string(p) + ":" + id
}
