package service

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/n9te9/go-graphql-rest-gateway/store"
)

type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterIDSet
	FilterPostID
)

func (k FilterKind) String() string {
	switch k {
	case FilterIDSet:
		return "id-set"
	case FilterPostID:
		return "post-id"
	}
	return "all"
}

// CommentFilter is the parsed form of the /comments query string.
type CommentFilter struct {
	Kind   FilterKind
	IDs    []int
	PostID int
	// Invalid holds the tokens that could not be read as integers. They act as a
	// sentinel that matches no comment.
	Invalid []string
}

// ParseCommentFilter reads the id and postId parameters. A non-empty id always wins
// over postId. Empty parameters count as absent.
func ParseCommentFilter(q url.Values) CommentFilter {
	if raw := q.Get("id"); raw != "" {
		f := CommentFilter{Kind: FilterIDSet}
		for _, tok := range strings.Split(raw, ",") {
			id, ok := parseNumber(tok)
			if !ok {
				f.Invalid = append(f.Invalid, tok)
				continue
			}
			f.IDs = append(f.IDs, id)
		}
		return f
	}

	if raw := q.Get("postId"); raw != "" {
		f := CommentFilter{Kind: FilterPostID}
		id, ok := parseLeadingInt(raw)
		if !ok {
			f.Invalid = []string{raw}
			return f
		}
		f.PostID = id
		return f
	}

	return CommentFilter{Kind: FilterAll}
}

// Valid reports whether every token was an integer.
func (f CommentFilter) Valid() bool {
	return len(f.Invalid) == 0
}

func (f CommentFilter) Match(c store.Comment) bool {
	switch f.Kind {
	case FilterIDSet:
		return slices.Contains(f.IDs, c.ID)
	case FilterPostID:
		return f.Valid() && c.PostID == f.PostID
	}
	return true
}

// Apply keeps the matching comments in storage order.
func (f CommentFilter) Apply(comments []store.Comment) []store.Comment {
	out := make([]store.Comment, 0, len(comments))
	for _, c := range comments {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// parseNumber reads an id-set token. Surrounding spaces are ignored, an empty token
// reads as 0, unsigned 0x, 0o and 0b prefixed integers are accepted and so are integral
// decimal forms such as "2.0" or "1e1".
func parseNumber(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, true
	}
	if base, digits, ok := radixPrefix(tok); ok {
		if digits == "" || digits[0] == '+' || digits[0] == '-' {
			return 0, false
		}
		n, err := strconv.ParseInt(digits, base, 0)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}

	if !isDecimalFloat(tok) {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func radixPrefix(tok string) (base int, digits string, ok bool) {
	if len(tok) < 2 || tok[0] != '0' {
		return 0, "", false
	}
	switch tok[1] {
	case 'x', 'X':
		return 16, tok[2:], true
	case 'o', 'O':
		return 8, tok[2:], true
	case 'b', 'B':
		return 2, tok[2:], true
	}
	return 0, "", false
}

// isDecimalFloat rejects the forms strconv.ParseFloat accepts beyond plain decimal
// notation: inf, nan, hex floats and underscores.
func isDecimalFloat(tok string) bool {
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9', c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// parseLeadingInt reads the leading integer of s, so "2abc" reads as 2. A 0x prefix
// after the optional sign switches to hexadecimal, so "0x2" reads as 2.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	base, isDigit := 10, isDecimalDigit
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit, s = 16, isHexDigit, s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(sign+s[:end], base, 0)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func isDecimalDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDecimalDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
