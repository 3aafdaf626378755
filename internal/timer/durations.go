package timer

// typicalDurations maps known activity-type labels to canonical expected
// durations in seconds. Used as a UI hint, not authoritative.
var typicalDurations = map[string]int{
	"Raid":                      3600,
	"Donjons":                   1800,
	"Grève":                     900,
	"Grève Héroïque":            1200,
	"Grève de maître-d'œuvre":   1800,
	"Grève de grand maître":     2700,
	"JcJ":                       600,
	"Gambit":                    900,
	"Épreuve d'Osiris":          420,
	"Patrouille":                1800,
	"Zone Mortelle":             300,
	"Percée":                    600,
	"Contrôle":                  720,
	"Choc":                      480,
	"Élimination":               360,
	"Survie":                    480,
}

// TypicalDuration returns the canonical expected duration for an activity
// type, or false for unknown labels.
func TypicalDuration(activityType string) (int, bool) {
	d, ok := typicalDurations[activityType]
	return d, ok
}
