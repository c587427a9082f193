package main

import (
	"log"
	"os"

	"docflow/internal/database"
	"docflow/internal/model"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds an admin account, a few approvers/initiators and a demo approval
// template so a fresh database is immediately usable.
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "docflow")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	users := []struct {
		username, email, password, role string
	}{
		{"admin", "admin@docflow.local", "admin123", model.RoleAdmin},
		{"alice", "alice@docflow.local", "alice123", model.RoleApprover},
		{"bob", "bob@docflow.local", "bob123", model.RoleApprover},
		{"carol", "carol@docflow.local", "carol123", model.RoleApprover},
		{"dave", "dave@docflow.local", "dave123", model.RoleInitiator},
	}

	seeded := make(map[string]model.User)
	for _, u := range users {
		var existing model.User
		err := db.First(&existing, "username = ?", u.username).Error
		if err == nil {
			seeded[u.username] = existing
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("Failed to look up user %s: %v", u.username, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.username, err)
		}
		user := model.User{
			Username: u.username,
			Email:    u.email,
			Password: string(hash),
			Role:     u.role,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Failed to create user %s: %v", u.username, err)
		}
		seeded[u.username] = user
		log.Printf("Created user %s (%s)", u.username, u.role)
	}

	var count int64
	db.Model(&model.Template{}).Where("name = ?", "Capex three-stage review").Count(&count)
	if count == 0 {
		template := model.Template{
			Name:        "Capex three-stage review",
			Description: "Finance, department head, then executive sign-off",
			Steps: []model.TemplateStep{
				{ApproverID: seeded["alice"].ID, SequenceOrder: model.SequenceBase},
				{ApproverID: seeded["bob"].ID, SequenceOrder: model.SequenceBase + 1},
				{ApproverID: seeded["carol"].ID, SequenceOrder: model.SequenceBase + 2},
			},
		}
		if err := db.Create(&template).Error; err != nil {
			log.Fatalf("Failed to create demo template: %v", err)
		}
		log.Println("Created demo template:", template.Name)
	}

	log.Println("Seeding complete.")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
