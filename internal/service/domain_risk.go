package service

import (
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"
)

// ComputeDomainRisks scores every catalog domain from the combined vector, in
// catalog order. A domain with no answered features scores 0 (Green) and is
// reported with Evidence=false.
func ComputeDomainRisks(cat *catalog.Catalog, vec model.FeatureVector) []model.DomainRiskScore {
	polarity := cat.Polarity()
	bands := cat.Bands()

	domains := cat.Domains()
	out := make([]model.DomainRiskScore, 0, len(domains))
	for _, d := range domains {
		var sum float64
		var n int
		for _, fid := range d.Features {
			v, ok := vec.Get(fid)
			if !ok {
				continue
			}
			sum += polarity.Risk(fid, v)
			n++
		}

		risk := 0.0
		if n > 0 {
			risk = sum / float64(n)
		}
		out = append(out, model.DomainRiskScore{
			Domain:   d.Name,
			Risk:     risk,
			Band:     bands.Assign(risk),
			Evidence: n > 0,
			Covered:  n,
		})
	}
	return out
}
