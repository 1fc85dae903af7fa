package countries

import (
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/modules/diplomacy"
)

// SeedIfEmpty loads a small default world when the countries table is
// empty, so a fresh install serves data immediately.
func SeedIfEmpty(repo *Repository, relations *diplomacy.Repository, log zerolog.Logger) error {
	n, err := repo.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Info().Msg("Seeding default countries")

	for _, c := range defaultCountries() {
		if err := repo.Save(c); err != nil {
			return err
		}
	}
	for _, rel := range defaultRelations() {
		if err := relations.Upsert(rel); err != nil {
			return err
		}
	}
	return nil
}

func defaultCountries() []domain.Country {
	return []domain.Country{
		{
			ISOCode: "USA", Name: "USA", GDP: 25000000, Population: 331000000,
			UnemploymentRate: 3.7, InflationRate: 3.2, ApprovalRating: 48,
			GovernmentType: "democracy", Region: "north_america",
			Industries: map[string]float64{"technology": 0.28, "services": 0.42, "manufacturing": 0.18, "agriculture": 0.05, "energy": 0.07},
			GDPHistory: map[int]float64{2020: 21000000, 2021: 23000000, 2022: 24000000, 2023: 24600000, 2024: 25000000},
			TradingPartners: []domain.TradingPartner{
				{Country: "CHN", Volume: 650000},
				{Country: "DEU", Volume: 240000},
				{Country: "JPN", Volume: 210000},
			},
		},
		{
			ISOCode: "CHN", Name: "Kina", GDP: 18000000, Population: 1412000000,
			UnemploymentRate: 5.2, InflationRate: 2.1, ApprovalRating: 60,
			GovernmentType: "single_party", Region: "asia",
			Industries: map[string]float64{"manufacturing": 0.38, "technology": 0.2, "services": 0.3, "agriculture": 0.07, "energy": 0.05},
			GDPHistory: map[int]float64{2020: 14700000, 2021: 16000000, 2022: 17000000, 2023: 17600000, 2024: 18000000},
			TradingPartners: []domain.TradingPartner{
				{Country: "USA", Volume: 650000},
				{Country: "JPN", Volume: 310000},
				{Country: "DEU", Volume: 250000},
			},
		},
		{
			ISOCode: "DEU", Name: "Tyskland", GDP: 4200000, Population: 83000000,
			UnemploymentRate: 5.6, InflationRate: 2.8, ApprovalRating: 44,
			GovernmentType: "democracy", Region: "europe",
			Industries: map[string]float64{"manufacturing": 0.31, "services": 0.4, "technology": 0.15, "energy": 0.08, "agriculture": 0.06},
			GDPHistory: map[int]float64{2020: 3800000, 2021: 4000000, 2022: 4100000, 2023: 4150000, 2024: 4200000},
			TradingPartners: []domain.TradingPartner{
				{Country: "USA", Volume: 240000},
				{Country: "CHN", Volume: 250000},
			},
		},
		{
			ISOCode: "JPN", Name: "Japan", GDP: 4900000, Population: 125000000,
			UnemploymentRate: 2.6, InflationRate: 1.8, ApprovalRating: 41,
			GovernmentType: "democracy", Region: "asia",
			Industries: map[string]float64{"manufacturing": 0.29, "technology": 0.22, "services": 0.38, "agriculture": 0.05, "energy": 0.06},
			GDPHistory: map[int]float64{2020: 5000000, 2021: 4950000, 2022: 4900000, 2023: 4880000, 2024: 4900000},
			TradingPartners: []domain.TradingPartner{
				{Country: "CHN", Volume: 310000},
				{Country: "USA", Volume: 210000},
			},
		},
	}
}

func defaultRelations() []domain.RelationLevel {
	return []domain.RelationLevel{
		{CountryA: "USA", CountryB: "CHN", RelationLevel: -0.4, TradeVolume: 650000, Agreements: []string{}},
		{CountryA: "USA", CountryB: "DEU", RelationLevel: 0.75, TradeVolume: 240000, Agreements: []string{"nato"}},
		{CountryA: "USA", CountryB: "JPN", RelationLevel: 0.8, TradeVolume: 210000, Agreements: []string{"security_treaty"}},
		{CountryA: "CHN", CountryB: "JPN", RelationLevel: -0.1, TradeVolume: 310000, Agreements: []string{}},
		{CountryA: "CHN", CountryB: "DEU", RelationLevel: 0.2, TradeVolume: 250000, Agreements: []string{}},
	}
}
