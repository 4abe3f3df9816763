package store

import (
	"context"
	"log/slog"

	"github.com/playperu/heritagequest/internal/heritage"
)

// SeedDemo loads the Borobudur and Prambanan demo sites when the database has
// no sites yet. Idempotent: does nothing once any site exists.
func (s *SQLiteStore) SeedDemo(ctx context.Context, logger *slog.Logger) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, c := range demoSites() {
		if err := s.PutSite(ctx, c); err != nil {
			return err
		}
	}
	logger.Info("demo sites seeded", "count", len(demoSites()))
	return nil
}

func demoSites() []heritage.SiteContent {
	return []heritage.SiteContent{
		{
			Site: heritage.Site{
				ID:               "site-borobudur",
				Name:             "Candi Borobudur",
				Region:           "Magelang, Jawa Tengah",
				Description:      "The largest Buddhist temple in the world, built as a stepped mandala of nine platforms.",
				YearBuilt:        "9th century",
				QRCode:           "BOROBUDUR_QR_2024",
				EstimatedMinutes: 120,
			},
			Buildings: []heritage.Building{
				{ID: "bld-borobudur-gate", Name: "Main Gate", Category: "entrance", VisitOrder: 1,
					Description: "Eastern entrance facing the sunrise.", Latitude: -7.6079, Longitude: 110.2038},
				{ID: "bld-borobudur-kamadhatu", Name: "Kamadhatu", Category: "platform", VisitOrder: 2,
					Description: "Base level depicting the world of desires.", Latitude: -7.6080, Longitude: 110.2037},
				{ID: "bld-borobudur-rupadhatu", Name: "Rupadhatu", Category: "gallery", VisitOrder: 3,
					Description: "Four square galleries lined with narrative reliefs.", Latitude: -7.6081, Longitude: 110.2036},
				{ID: "bld-borobudur-arupadhatu", Name: "Arupadhatu", Category: "terrace", VisitOrder: 4,
					Description: "Three circular terraces of perforated stupas.", Latitude: -7.6082, Longitude: 110.2035},
				{ID: "bld-borobudur-main-stupa", Name: "Main Stupa", Category: "stupa", VisitOrder: 5,
					Description: "The crowning stupa at the summit.", Latitude: -7.6083, Longitude: 110.2034},
			},
			Overview: []heritage.OverviewPage{
				{ID: "ov-borobudur-1", Order: 1, Title: "History",
					Body: "Built by the Sailendra dynasty and rediscovered in 1814 under volcanic ash."},
				{ID: "ov-borobudur-2", Order: 2, Title: "Architecture",
					Body: "Six square platforms topped by three circular ones, with 504 Buddha statues."},
				{ID: "ov-borobudur-3", Order: 3, Title: "Reliefs",
					Body: "2,672 relief panels tell the life of the Buddha and Buddhist teachings."},
			},
			Questions: []heritage.TriviaQuestion{
				{ID: "q-borobudur-1", Order: 1, Question: "Which dynasty built Borobudur?",
					OptionA: "Majapahit", OptionB: "Sailendra", OptionC: "Mataram Islam", OptionD: "Singhasari",
					CorrectOption: "B", Explanation: "Borobudur was built under the Sailendra dynasty."},
				{ID: "q-borobudur-2", Order: 2, Question: "How many Buddha statues does Borobudur hold?",
					OptionA: "504", OptionB: "72", OptionC: "1000", OptionD: "108",
					CorrectOption: "A", Explanation: "There are 504 Buddha statues across the monument."},
				{ID: "q-borobudur-3", Order: 3, Question: "What does the Kamadhatu level represent?",
					OptionA: "Formlessness", OptionB: "Enlightenment", OptionC: "The world of desires", OptionD: "The afterlife",
					CorrectOption: "C", Explanation: "Kamadhatu is the sphere of desires."},
				{ID: "q-borobudur-4", Order: 4, Question: "In which year was Borobudur rediscovered?",
					OptionA: "1700", OptionB: "1945", OptionC: "1901", OptionD: "1814",
					CorrectOption: "D", Explanation: "Raffles' survey uncovered it in 1814."},
				{ID: "q-borobudur-5", Order: 5, Question: "How many relief panels decorate Borobudur?",
					OptionA: "1,460", OptionB: "2,672", OptionC: "504", OptionD: "3,000",
					CorrectOption: "B", Explanation: "The monument has 2,672 relief panels."},
			},
			Badge: &heritage.Badge{
				ID:    "badge-borobudur",
				Title: "Borobudur Explorer",
				Info:  "Explored every level of Candi Borobudur.",
			},
		},
		{
			Site: heritage.Site{
				ID:               "site-prambanan",
				Name:             "Candi Prambanan",
				Region:           "Yogyakarta",
				Description:      "A 9th-century Hindu temple compound dedicated to the Trimurti.",
				YearBuilt:        "9th century",
				QRCode:           "PRAMBANAN_QR_2024",
				EstimatedMinutes: 90,
			},
			Buildings: []heritage.Building{
				{ID: "bld-prambanan-shiva", Name: "Shiva Temple", Category: "temple", VisitOrder: 1,
					Description: "The central 47 m tower.", Latitude: -7.7520, Longitude: 110.4915},
				{ID: "bld-prambanan-brahma", Name: "Brahma Temple", Category: "temple", VisitOrder: 2,
					Description: "South of the Shiva temple.", Latitude: -7.7523, Longitude: 110.4914},
				{ID: "bld-prambanan-vishnu", Name: "Vishnu Temple", Category: "temple", VisitOrder: 3,
					Description: "North of the Shiva temple.", Latitude: -7.7517, Longitude: 110.4915},
				{ID: "bld-prambanan-nandi", Name: "Nandi Temple", Category: "vahana", VisitOrder: 4,
					Description: "Shrine of Shiva's mount.", Latitude: -7.7520, Longitude: 110.4920},
			},
			Overview: []heritage.OverviewPage{
				{ID: "ov-prambanan-1", Order: 1, Title: "History",
					Body: "Completed around 850 CE and restored after the 2006 earthquake."},
				{ID: "ov-prambanan-2", Order: 2, Title: "Legend",
					Body: "The legend of Roro Jonggrang tells of a thousand temples built in one night."},
			},
			Questions: []heritage.TriviaQuestion{
				{ID: "q-prambanan-1", Order: 1, Question: "Which god is honoured by the main temple?",
					OptionA: "Vishnu", OptionB: "Brahma", OptionC: "Shiva", OptionD: "Ganesha",
					CorrectOption: "C", Explanation: "The central temple is dedicated to Shiva."},
				{ID: "q-prambanan-2", Order: 2, Question: "Which legend is tied to Prambanan?",
					OptionA: "Roro Jonggrang", OptionB: "Malin Kundang", OptionC: "Sangkuriang", OptionD: "Timun Mas",
					CorrectOption: "A", Explanation: "Roro Jonggrang is said to be the statue of Durga."},
				{ID: "q-prambanan-3", Order: 3, Question: "How tall is the Shiva temple?",
					OptionA: "20 m", OptionB: "35 m", OptionC: "60 m", OptionD: "47 m",
					CorrectOption: "D", Explanation: "The Shiva temple rises 47 metres."},
				{ID: "q-prambanan-4", Order: 4, Question: "Nandi is the mount of which god?",
					OptionA: "Shiva", OptionB: "Vishnu", OptionC: "Brahma", OptionD: "Indra",
					CorrectOption: "A", Explanation: "Nandi the bull carries Shiva."},
				{ID: "q-prambanan-5", Order: 5, Question: "Which natural event damaged Prambanan in 2006?",
					OptionA: "Flood", OptionB: "Earthquake", OptionC: "Eruption", OptionD: "Tsunami",
					CorrectOption: "B", Explanation: "The Yogyakarta earthquake damaged the compound."},
			},
			Badge: &heritage.Badge{
				ID:    "badge-prambanan",
				Title: "Prambanan Explorer",
				Info:  "Visited the Trimurti temples of Candi Prambanan.",
			},
		},
	}
}
