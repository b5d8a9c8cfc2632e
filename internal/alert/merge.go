package alert

import id "radar/pkg/domain"

// Merge builds the single-entity view: the real-time alerts of cnpj plus the
// population-only alerts precomputed in batch for the same company.
// Batch alerts of other types are ignored in favour of the real-time ones.
func Merge(cnpj id.CNPJ, realtime, population []Alert) []Alert {
	out := make([]Alert, 0, len(realtime))
	seen := make(map[string]bool)
	add := func(a Alert) {
		key := string(a.Type) + "\x00" + a.Evidence
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, a)
	}
	for _, a := range realtime {
		if a.CNPJ == cnpj {
			add(a)
		}
	}
	for _, a := range population {
		if a.CNPJ == cnpj && a.Type.PopulationOnly() {
			add(a)
		}
	}
	sortAlerts(out)
	return out
}
