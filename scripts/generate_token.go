package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/forms-backend/internal/config"
	"github.com/your-org/forms-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run scripts/generate_token.go <user-id> <username> [role...]")
	}

	userID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil || userID == 0 {
		log.Fatalf("Invalid user id %q", os.Args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := auth.NewJWTManager(cfg.JWT).GenerateAccessToken(uint(userID), os.Args[2], os.Args[3:]...)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
}
