// Command create-admin provisions a local admin account with generated
// credentials and prints them once.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// randomHex returns a random hex string of length 2n.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal(err)
	}
	return hex.EncodeToString(buf)
}

func uniqueUsername(db *gorm.DB) string {
	for {
		username := "admin_" + randomHex(4)
		var count int64
		db.Model(&model.User{}).Where("username = ?", username).Count(&count)
		if count == 0 {
			return username
		}
	}
}

func main() {
	db, err := database.GetMainDB()
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	username := uniqueUsername(db.DB)
	password := randomHex(8)
	utilities.CreateAdmin(password, username, db.DB)

	fmt.Println("Admin credentials generated successfully!")
	fmt.Println("======================================")
	fmt.Printf("Username: %s\n", username)
	fmt.Printf("Password: %s\n", password)
	fmt.Println("======================================")
}
