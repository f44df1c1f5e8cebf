package route2

import "github.com/restaurant-bff/core/internal/domain"

const defaultRegionFallback = "US"

// resolveUserRegion is a reverse-geocode stand-in: it always returns "",
// with or without a location. No reverse-geocode is performed, so region
// resolution falls through to the intent's region candidate and then the
// fallback.
func resolveUserRegion(userLocation *domain.Location) string {
	if userLocation == nil {
		return ""
	}
	// Without a reverse-geocode collaborator in scope, presence of a
	// location alone cannot name a country; callers fall through to the
	// next priority (intent regionCandidate) when this returns "".
	return ""
}

// buildFinalFilters constructs sharedFilters.final from, in priority
// order: (a) user-location reverse-geocoded country, (b) intent
// regionCandidate, (c) session default (not modeled — no per-session
// region preference store in this core), (d) configured fallback.
// regionCode is guaranteed non-empty for every successful search.
func buildFinalFilters(userRegion string, intent *domain.Intent, requestFilters *domain.RequestFilters, uiLanguage domain.UILanguage) domain.SharedFilters {
	regionCode := firstNonEmptyStr(userRegion, intent.RegionCandidate, defaultRegionFallback)

	final := domain.FinalFilters{
		RegionCode:       regionCode,
		UILanguage:       uiLanguage,
		ProviderLanguage: providerLanguageFor(uiLanguage),
	}

	if requestFilters != nil {
		final.OpenState = requestFilters.OpenNow
		final.PriceLevel = requestFilters.PriceLevel
		final.Requirements = requestFilters.MustHave
		for _, d := range requestFilters.Dietary {
			switch d {
			case "kosher":
				v := true
				final.IsKosher = &v
			case "gluten_free":
				v := true
				final.IsGlutenFree = &v
			}
		}
	}

	return domain.SharedFilters{Final: final}
}

func providerLanguageFor(uiLanguage domain.UILanguage) string {
	switch uiLanguage {
	case domain.LangHebrew:
		return "iw"
	default:
		return "en"
	}
}

func firstNonEmptyStr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
