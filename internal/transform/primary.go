// Where: cli/internal/transform/primary.go
// What: Primary-service selection for multi-service apps.
// Why: Version extraction and image tracking need the app's main container,
// not a bundled database or cache sidecar.
package transform

import (
	"strings"

	"github.com/appbridge/cli/internal/casaos"
)

// Service names containing these read as supporting services.
var supportKeywords = []string{
	"postgres", "postgresql", "mysql", "mariadb", "redis",
	"memcached", "mongo", "mongodb", "db", "database",
}

// Service names containing these read as the main service.
var mainKeywords = []string{
	"server", "app", "web", "api", "frontend", "backend", "service",
}

// primaryService scores each service's name against the app id and returns
// the best match. Exact match wins outright; an "<id>-" prefixed name scores
// by keyword (main keywords up, database keywords heavily down, shorter
// names preferred); a word-bounded substring match scores low. Falls back
// to the first service when nothing matches.
func primaryService(app *casaos.App) *casaos.Service {
	appID := strings.ToLower(app.ID)
	var best *casaos.Service
	bestScore := -1

	for i := range app.Services {
		svc := &app.Services[i]
		name := strings.ToLower(svc.Name)
		score := 0

		switch {
		case name == appID:
			score = 1000
		case strings.HasPrefix(name, appID+"-") || strings.HasPrefix(name, appID+"_"):
			score = 100
			for _, keyword := range mainKeywords {
				if strings.Contains(name, keyword) {
					score += 50
					break
				}
			}
			for _, keyword := range supportKeywords {
				if strings.Contains(name, keyword) {
					score -= 200
					break
				}
			}
			score -= min(len(svc.Name), 50)
		case containsWord(name, appID):
			score = 50
		}

		if score > bestScore {
			bestScore = score
			best = svc
		}
	}

	if best == nil && len(app.Services) > 0 {
		best = &app.Services[0]
	}
	return best
}

// containsWord reports whether needle occurs in haystack bounded by
// non-alphanumeric characters (or the string edges) on both sides.
func containsWord(haystack, needle string) bool {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return false
	}
	beforeOK := idx == 0 || !isAlnum(haystack[idx-1])
	after := idx + len(needle)
	afterOK := after >= len(haystack) || !isAlnum(haystack[after])
	return beforeOK && afterOK
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
