package pricesheet

import (
	"regexp"
	"strings"
)

var reMultiSpace = regexp.MustCompile(`\s+`)

var accentReplacer = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Ñ", "N",
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// StripAccents folds the accented characters that show up in Brazilian
// price sheets into their ASCII base form.
func StripAccents(s string) string {
	return accentReplacer.Replace(s)
}

// NormalizeText upper-cases, strips accents and collapses whitespace.
// Header pattern matching runs over this form so "Descrição" and
// "DESCRICAO" behave the same.
func NormalizeText(s string) string {
	s = StripAccents(strings.ToUpper(s))
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(reMultiSpace.ReplaceAllString(s, " "))
}
