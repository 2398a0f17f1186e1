package registry

import "exoml-server/core/models"

// Builtin returns the feature schemas shipped with the server, one per mission
// catalogue the training notebooks produce models for.
func Builtin() []models.ModelSpec {
	return []models.ModelSpec{
		{
			ID:        "Kepler",
			ModelType: "Kepler Objects of Interest classifier",
			Family:    models.FamilyDisposition,
			Features: []models.FeatureSpec{
				{Name: "koi_score", Label: "Disposition Score", Description: "Confidence in the KOI disposition from the Kepler pipeline", Unit: "", Min: 0, Max: 1, Default: 0.5},
				{Name: "koi_model_snr", Label: "Transit Signal-to-Noise", Description: "Transit depth normalized by mean flux uncertainty", Unit: "", Min: 0, Max: 500, Default: 25},
				{Name: "koi_depth", Label: "Transit Depth", Description: "Fraction of stellar flux lost at mid-transit", Unit: "ppm", Min: 0, Max: 50000, Default: 700},
				{Name: "koi_period", Label: "Orbital Period", Description: "Interval between consecutive transits", Unit: "days", Min: 0.2, Max: 800, Default: 12},
				{Name: "koi_prad", Label: "Planetary Radius", Description: "Radius of the planet from transit fit", Unit: "Earth radii", Min: 0.1, Max: 30, Default: 2.5},
			},
		},
		{
			ID:        "TESS",
			ModelType: "TESS Objects of Interest classifier",
			Family:    models.FamilyTransit,
			Features: []models.FeatureSpec{
				{Name: "pl_trandep", Label: "Transit Depth", Description: "Depth of the transit signal", Unit: "ppm", Min: 0, Max: 30000, Default: 1200},
				{Name: "pl_trandurh", Label: "Transit Duration", Description: "Duration of the transit", Unit: "hours", Min: 0, Max: 24, Default: 3},
				{Name: "pl_rade", Label: "Planet Radius", Description: "Planet radius from transit fit", Unit: "Earth radii", Min: 0.3, Max: 30, Default: 3},
				{Name: "pl_orbper", Label: "Orbital Period", Description: "Time to complete one orbit", Unit: "days", Min: 0.2, Max: 500, Default: 8},
				{Name: "st_teff", Label: "Stellar Temperature", Description: "Effective temperature of the host star", Unit: "K", Min: 2500, Max: 10000, Default: 5500},
			},
		},
		{
			ID:        "K2",
			ModelType: "K2 planets and candidates classifier",
			Family:    models.FamilyShapePeriodicity,
			Features: []models.FeatureSpec{
				{Name: "pl_orbper", Label: "Orbital Period", Description: "Time to complete one orbit", Unit: "days", Min: 0.2, Max: 500, Default: 10},
				{Name: "pl_ratror", Label: "Radius Ratio", Description: "Planet to star radius ratio", Unit: "", Min: 0, Max: 0.5, Default: 0.03},
				{Name: "pl_rade", Label: "Planet Radius", Description: "Planet radius from transit fit", Unit: "Earth radii", Min: 0.3, Max: 30, Default: 2.8},
				{Name: "pl_orbeccen", Label: "Eccentricity", Description: "Orbital eccentricity", Unit: "", Min: 0, Max: 1, Default: 0.05},
				{Name: "st_rad", Label: "Stellar Radius", Description: "Radius of the host star", Unit: "Solar radii", Min: 0.1, Max: 10, Default: 1},
			},
		},
	}
}
