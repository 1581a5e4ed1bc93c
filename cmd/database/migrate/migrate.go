package migration

import (
	"Receipt-Review-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.Receipt{}); err != nil {
		log.Fatalf("Error migrating receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Item{}); err != nil {
		log.Fatalf("Error migrating item database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ReceiptFailureReport{}); err != nil {
		log.Fatalf("Error migrating failure report database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.TestRun{}); err != nil {
		log.Fatalf("Error migrating test run database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.TestRunReceipt{}); err != nil {
		log.Fatalf("Error migrating test run receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.QualityFeedbackEntry{}); err != nil {
		log.Fatalf("Error migrating quality feedback database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
