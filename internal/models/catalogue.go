package models

import "strings"

// SiteOptions is the curated list of retailer domains offered for search.
var SiteOptions = []string{
	"nicheperfumes.net",
	"jovoyparis.com",
	"nadiaperfumeria.com",
	"selfridges.com",
	"luckyscent.com",
	"lamaisonduparfum.com",
	"fragrancesandart.com",
	"neroli.hu",
	"ecuacionnatural.com",
	"profumiluxurybrands.it",
	"maxaroma.com",
	"essenza-nobile.de",
	"ausliebezumduft.de",
	"fragrantica.com",
	"basenotes.net",
}

var DefaultSites = []string{
	"jovoyparis.com",
	"essenza-nobile.de",
	"nicheperfumes.net",
	"luckyscent.com",
	"fragrantica.com",
}

// NormalizeSites trims, lowercases and de-duplicates site values keeping the
// first occurrence. RTL multi-select widgets sometimes prepend an "x"; that
// prefix is dropped when the remainder is a catalogue entry.
func NormalizeSites(sites []string) []string {
	seen := make(map[string]bool, len(sites))
	out := make([]string, 0, len(sites))
	for _, raw := range sites {
		site := strings.ToLower(strings.TrimSpace(raw))
		if site == "" {
			continue
		}
		if strings.HasPrefix(site, "x") && !IsCatalogueSite(site) && IsCatalogueSite(site[1:]) {
			site = site[1:]
		}
		if seen[site] {
			continue
		}
		seen[site] = true
		out = append(out, site)
	}
	return out
}

func IsCatalogueSite(site string) bool {
	return contains(SiteOptions, site)
}
