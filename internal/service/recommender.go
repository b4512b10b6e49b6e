package service

import (
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"
)

// SelectModules walks the domains in catalog order and attaches the curated
// task list of every domain whose band is one of its triggers.
func SelectModules(cat *catalog.Catalog, risks []model.DomainRiskScore) []model.RecommendationModule {
	byDomain := make(map[string]model.DomainRiskScore, len(risks))
	for _, r := range risks {
		byDomain[r.Domain] = r
	}

	modules := make([]model.RecommendationModule, 0)
	for _, d := range cat.Domains() {
		r, ok := byDomain[d.Name]
		if !ok || !d.Triggered(r.Band) {
			continue
		}
		modules = append(modules, model.RecommendationModule{
			Domain: d.Name,
			Tasks:  d.Tasks,
		})
	}
	return modules
}
