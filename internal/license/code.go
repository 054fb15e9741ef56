package license

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

// codeAlphabet is the fixed 32-symbol alphabet used for display codes.
// Visually ambiguous characters (0, 1, I, O) are excluded.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	codeGroupLen = 4
	codeGroups   = 5
	// CodeLength is the full length of a display code including separators.
	CodeLength = codeGroups*codeGroupLen + (codeGroups - 1)
)

// ErrInvalidCodeFormat is returned by ParseCode for malformed codes.
var ErrInvalidCodeFormat = errors.New("invalid license code format")

// GenerateCode builds a human-typable display code of the form
// XXXX-YYYY-ZZZZ-AAAA-BBBB. The first group carries two-character prefixes
// derived from the product and consumer ids, the second encodes year and
// month of issuance, and the remaining three groups are random. The code is
// a support correlation artifact, never a trust boundary.
func GenerateCode(productID, consumerID string, createdAt time.Time) string {
	groups := []string{
		codePrefix(productID) + codePrefix(consumerID),
		fmt.Sprintf("%02d%02d", createdAt.Year()%100, int(createdAt.Month())),
		randomGroup(),
		randomGroup(),
		randomGroup(),
	}
	return strings.Join(groups, "-")
}

// codePrefix derives a deterministic two-character prefix from a GUID-like
// identifier. Ambiguous characters are remapped (0->2, O->3, I->J, 1->P);
// every other alphanumeric is hashed into the code alphabet. Short or
// symbol-free ids are padded with alphabet-derived filler.
func codePrefix(id string) string {
	up := strings.ToUpper(id)
	out := make([]byte, 0, 2)
	for i := 0; i < len(up) && len(out) < 2; i++ {
		switch c := up[i]; {
		case c == '0':
			out = append(out, '2')
		case c == 'O':
			out = append(out, '3')
		case c == 'I':
			out = append(out, 'J')
		case c == '1':
			out = append(out, 'P')
		case (c >= '2' && c <= '9') || (c >= 'A' && c <= 'Z'):
			out = append(out, codeAlphabet[int(c)%len(codeAlphabet)])
		}
	}
	for len(out) < 2 {
		out = append(out, codeAlphabet[(len(up)+len(out))%len(codeAlphabet)])
	}
	return string(out)
}

// randomGroup draws four symbols from the code alphabet. crypto/rand keeps
// unissued codes hard to guess; recoverability is not a goal.
func randomGroup() string {
	buf := make([]byte, codeGroupLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; codes are
		// display artifacts, so fall back to a fixed filler group.
		return strings.Repeat(string(codeAlphabet[0]), codeGroupLen)
	}
	out := make([]byte, codeGroupLen)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// IsValidCodeFormat reports whether code is exactly five dash-separated
// groups of four characters. Groups 1 and 3-5 must use the code alphabet;
// group 2 is the numeric year/month segment and must be four digits.
func IsValidCodeFormat(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	groups := strings.Split(code, "-")
	if len(groups) != codeGroups {
		return false
	}
	for gi, g := range groups {
		if len(g) != codeGroupLen {
			return false
		}
		for _, c := range g {
			if gi == 1 {
				if c < '0' || c > '9' {
					return false
				}
				continue
			}
			if !strings.ContainsRune(codeAlphabet, c) {
				return false
			}
		}
	}
	return true
}

// ParseCode splits a well-formed display code into its components. The
// two-digit year is widened by adding 2000; years outside 2000-2099 are not
// representable in this format.
func ParseCode(code string) (*LicenseCodeComponents, error) {
	if !IsValidCodeFormat(code) {
		return nil, ErrInvalidCodeFormat
	}
	groups := strings.Split(code, "-")

	year := 2000 + int(groups[1][0]-'0')*10 + int(groups[1][1]-'0')
	month := int(groups[1][2]-'0')*10 + int(groups[1][3]-'0')

	return &LicenseCodeComponents{
		ProductPrefix:  groups[0][:2],
		ConsumerPrefix: groups[0][2:],
		Year:           year,
		Month:          month,
		Random1:        groups[2],
		Random2:        groups[3],
		Random3:        groups[4],
		FullCode:       code,
	}, nil
}
