package enrichment

import (
	"sort"
	"strings"

	"radar/internal/domain"
	id "radar/pkg/domain"
	platformstrings "radar/pkg/platform/strings"
)

const addressPunct = " ,.-/:;"

// numberMarkers are the words sources put between street and number.
var numberMarkers = map[string]bool{"N": true, "NO": true, "NUM": true, "NUMERO": true}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// AddressKey is the normalized (street, number) pair. Unit, floor and suite
// are deliberately left out: they are filled too inconsistently to compare.
type AddressKey struct {
	Street string
	Number string
}

func (k AddressKey) String() string {
	return k.Street + ", " + k.Number
}

// NormalizeAddress uppercases and folds accents, then splits street from
// number. A digit run right after a comma (optionally behind a number marker)
// is the number and everything before that comma is the street, so streets
// named after dates keep their digits. Without such a comma the first digit
// run is the number. ok is false when either part is missing.
func NormalizeAddress(address string) (AddressKey, bool) {
	text := platformstrings.CollapseSpaces(platformstrings.FoldAccents(platformstrings.NormalizeName(address)))
	if key, ok := numberAfterComma(text); ok {
		return key, true
	}
	start := strings.IndexFunc(text, isASCIIDigit)
	if start < 0 {
		return AddressKey{}, false
	}
	return addressKey(text[:start], digitRun(text[start:]))
}

func numberAfterComma(text string) (AddressKey, bool) {
	for k := strings.IndexByte(text, ','); k >= 0; {
		rest := text[k+1:]
		if start := strings.IndexFunc(rest, isASCIIDigit); start >= 0 {
			prefix := strings.Fields(strings.Trim(rest[:start], addressPunct))
			if len(prefix) == 0 || (len(prefix) == 1 && numberMarkers[strings.TrimRight(prefix[0], ".:º°")]) {
				return addressKey(text[:k], digitRun(rest[start:]))
			}
		}
		next := strings.IndexByte(rest, ',')
		if next < 0 {
			break
		}
		k += next + 1
	}
	return AddressKey{}, false
}

func digitRun(s string) string {
	end := 0
	for end < len(s) && isASCIIDigit(rune(s[end])) {
		end++
	}
	return s[:end]
}

func addressKey(prefix, number string) (AddressKey, bool) {
	fields := strings.Fields(strings.TrimRight(prefix, addressPunct))
	if n := len(fields); n > 1 && numberMarkers[strings.TrimRight(fields[n-1], ".:º°")] {
		fields = fields[:n-1]
	}
	street := strings.TrimRight(strings.Join(fields, " "), addressPunct)
	if street == "" || number == "" {
		return AddressKey{}, false
	}
	return AddressKey{Street: street, Number: number}, true
}

// SharedAddress is one unordered company pair at the same normalized address.
// A sorts before B.
type SharedAddress struct {
	A   id.CNPJ
	B   id.CNPJ
	Key AddressKey
}

// SharedAddresses self-joins companies on NormalizeAddress and emits every
// distinct pair once, ordered by (A, B).
func SharedAddresses(companies []domain.Company) []SharedAddress {
	groups := make(map[AddressKey][]id.CNPJ)
	seen := make(map[id.CNPJ]bool)
	for _, c := range companies {
		if seen[c.CNPJ] {
			continue
		}
		seen[c.CNPJ] = true
		key, ok := NormalizeAddress(c.Address)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], c.CNPJ)
	}

	var pairs []SharedAddress
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].String() < members[j].String() })
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				pairs = append(pairs, SharedAddress{A: members[i], B: members[j], Key: key})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A.String() < pairs[j].A.String()
		}
		return pairs[i].B.String() < pairs[j].B.String()
	})
	return pairs
}
