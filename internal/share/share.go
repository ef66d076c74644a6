// Package share composes WhatsApp messages listing a vehicle's documents.
package share

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/richxcame/fleet/internal/documents"
)

const whatsAppBase = "https://wa.me/"

var categoryLabels = map[documents.Category]string{
	documents.CategoryRC:        "Registration certificate",
	documents.CategoryInsurance: "Insurance",
	documents.CategoryFitness:   "Fitness certificate",
	documents.CategoryTax:       "Road tax",
	documents.CategoryPermit:    "Permit",
	documents.CategoryPUC:       "PUC certificate",
}

// Label returns the human-readable name of a category
func Label(category documents.Category) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return string(category)
}

// Summary renders a plain-text message listing document links by category
func Summary(heading string, urls map[documents.Category][]string) string {
	var b strings.Builder
	b.WriteString(heading)

	listed := 0
	for _, category := range documents.Categories {
		links := urls[category]
		if len(links) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s:", Label(category))
		for i, link := range links {
			fmt.Fprintf(&b, "\n%d. %s", i+1, link)
		}
		listed++
	}

	if listed == 0 {
		b.WriteString("\n\nNo documents attached.")
	}
	return b.String()
}

// WhatsAppLink builds a wa.me deep link. Without a phone number the link
// opens the contact picker.
func WhatsAppLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	return whatsAppBase + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
