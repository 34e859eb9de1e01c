package database

import (
	"log"

	"github.com/saeidsamfoladi/Telegrambot/internal/config"
	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	// Older deployments stored the member code in a column named "code".
	db.Exec(`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'members' AND column_name = 'code')
		   AND NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'members' AND column_name = 'my_code')
		THEN
			ALTER TABLE members RENAME COLUMN code TO my_code;
		END IF;
	END $$;`)

	err := db.AutoMigrate(
		&models.Admin{},
		&models.Member{},
		&models.ScreeningQuestion{},
		&models.ScreeningSession{},
		&models.ScreeningAnswer{},
		&models.InviteCode{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}
