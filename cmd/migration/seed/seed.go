package seed

import (
	"time"

	"opsflow/config"
	. "opsflow/internal/models"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const devTokenTTL = 30 * 24 * time.Hour

func stringPtr(s string) *string {
	return &s
}

// Seed loads a small demo data set and logs bearer tokens for the seeded profiles.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	company := Company{Name: "Boulangerie Martin", Address: stringPtr("12 rue Mercière, 69002 Lyon")}
	if err := db.Create(&company).Error; err != nil {
		return log.Err("failed to create company", err)
	}

	profiles := []Profile{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.MustParse("00000000-0000-4000-8000-000000000001")},
			FullName:      "Admin Opsflow",
			Email:         stringPtr("admin@example.com"),
			Role:          RoleAdmin,
		},
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.MustParse("00000000-0000-4000-8000-000000000002")},
			CompanyID:     &company.ID,
			FullName:      "Claire Martin",
			Email:         stringPtr("claire.martin@example.com"),
			Phone:         stringPtr("+33 6 12 34 56 78"),
			Role:          RoleClient,
		},
	}

	for i := range profiles {
		var existing Profile
		if err := db.First(&existing, "id = ?", profiles[i].ID).Error; err == nil {
			log.Info("Profile already exists", "profileID", profiles[i].ID)
			continue
		}
		if err := db.Create(&profiles[i]).Error; err != nil {
			return log.Err("failed to create profile", err, "profileID", profiles[i].ID)
		}
	}

	client := profiles[1]
	request := ServiceRequest{
		CompanyID:   &company.ID,
		ClientID:    client.ID,
		Title:       "Entretien annuel chaudière",
		Description: stringPtr("Chaudière gaz au sous-sol, accès par la cour."),
		ServiceType: "maintenance",
		Priority:    PriorityNormal,
	}
	if err := db.Create(&request).Error; err != nil {
		return log.Err("failed to create service request", err)
	}

	items := []QuoteLineItem{
		{Description: "Visite d'entretien", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("120.00")},
		{Description: "Kit joints", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("15.50")},
	}
	vatRate := decimal.NewFromInt(20)
	totals := services.ComputeQuoteTotals(items, vatRate)

	quote := Quote{
		Reference:        "DEV-SEED-000001",
		ServiceRequestID: request.ID,
		ClientID:         client.ID,
		CompanyID:        &company.ID,
		VatRate:          vatRate,
		TotalHT:          totals.HT,
		TotalTVA:         totals.TVA,
		TotalTTC:         totals.TTC,
		Status:           QuoteStatusAwaitingClient,
	}
	if err := quote.SetItems(items); err != nil {
		return log.Err("failed to encode quote items", err)
	}
	if err := db.Create(&quote).Error; err != nil {
		return log.Err("failed to create quote", err)
	}

	tokens := services.NewTokenService(config)
	for _, profile := range profiles {
		token, err := tokens.IssueToken(profile.ID, profile.ContactEmail(), devTokenTTL)
		if err != nil {
			return log.Err("failed to issue development token", err, "profileID", profile.ID)
		}
		log.Info("Development token", "profileID", profile.ID, "role", profile.Role, "token", token)
	}

	return nil
}
