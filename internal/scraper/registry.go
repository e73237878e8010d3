package scraper

import (
	"fmt"

	"github.com/dmarleau/arbscan/internal/config"
	"github.com/dmarleau/arbscan/internal/domain"
)

// Build instantiates the scrapers named in cfg.Scan.Sources, in order. It also
// returns the source registry carrying the priority implied by that order,
// which the normalizer uses for best-price tie-breaking.
func Build(cfg *config.Config) ([]Scraper, []domain.Source, error) {
	var (
		scrapers []Scraper
		sources  []domain.Source
	)
	priority := 0
	for _, id := range cfg.Scan.Sources {
		var (
			s       Scraper
			siteURL string
		)
		switch id {
		case "odds_api":
			s = NewOddsAPI(cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey, cfg.OddsAPI.Regions, cfg.OddsAPI.Bookmakers)
			// The aggregator's quotes carry the underlying bookmaker as the
			// source, so each configured bookmaker gets its own registry
			// entry. Their relative order in config breaks price ties.
			scrapers = append(scrapers, s)
			for _, bm := range cfg.OddsAPI.Bookmakers {
				sources = append(sources, domain.Source{
					ID:       bm,
					Name:     bm,
					URL:      "https://the-odds-api.com",
					Priority: priority,
				})
				priority++
			}
			continue
		case "sports_interaction":
			s = NewSportsInteraction(cfg.Sites.SportsInteractionURL)
			siteURL = cfg.Sites.SportsInteractionURL
		case "bodog":
			s = NewBodog(cfg.Sites.BodogURL)
			siteURL = cfg.Sites.BodogURL
		case "static":
			s = NewStatic(cfg.Sites.FixturesPath)
		default:
			return nil, nil, fmt.Errorf("scraper: unknown source %q", id)
		}
		scrapers = append(scrapers, s)
		sources = append(sources, domain.Source{
			ID:       id,
			Name:     displayName(id),
			URL:      siteURL,
			Priority: priority,
		})
		priority++
	}
	return scrapers, sources, nil
}

func displayName(id string) string {
	switch id {
	case "odds_api":
		return "The Odds API"
	case "sports_interaction":
		return "Sports Interaction"
	case "bodog":
		return "Bodog"
	case "static":
		return "Static Fixtures"
	}
	return id
}
