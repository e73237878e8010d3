package normalize

import "strings"

// tokenAliases expands the abbreviations bookmakers commonly use inside team
// names so "NY Rangers" and "New York Rangers" compare equal.
var tokenAliases = map[string]string{
	"ny":   "new york",
	"nj":   "new jersey",
	"la":   "los angeles",
	"lv":   "las vegas",
	"tb":   "tampa bay",
	"kc":   "kansas city",
	"sf":   "san francisco",
	"sj":   "san jose",
	"st":   "saint",
	"mtl":  "montreal",
	"tor":  "toronto",
	"utd":  "united",
	"intl": "international",
}

// canonicalTeam normalizes a team name for comparison: lowercase, punctuation
// stripped, whitespace collapsed, and known abbreviations expanded.
func canonicalTeam(name string) string {
	norm := normalizeName(name)
	tokens := strings.Fields(norm)
	for i, tok := range tokens {
		if full, ok := tokenAliases[tok]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}

// teamsMatch reports whether two team names refer to the same team. Exact
// canonical equality matches first; otherwise a nickname-only listing (e.g.
// "Maple Leafs" for "Toronto Maple Leafs") matches when one name's tokens are
// a suffix of the other's. The relation is symmetric, so event merging does
// not depend on which source arrived first.
func teamsMatch(a, b string) bool {
	ca, cb := canonicalTeam(a), canonicalTeam(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	return tokenSuffix(ca, cb) || tokenSuffix(cb, ca)
}

// tokenSuffix reports whether short's tokens equal the trailing tokens of
// long. Requires at least one token and short strictly shorter.
func tokenSuffix(short, long string) bool {
	st := strings.Fields(short)
	lt := strings.Fields(long)
	if len(st) == 0 || len(st) >= len(lt) {
		return false
	}
	offset := len(lt) - len(st)
	for i, tok := range st {
		if lt[offset+i] != tok {
			return false
		}
	}
	return true
}

// normalizeName lowercases and strips everything but letters and digits,
// collapsing runs of other characters into single spaces.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
