package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"slices"

	"wolontariat/config"
	"wolontariat/middlewares"
	"wolontariat/utils"
)

var roles = []string{utils.RoleVolunteer, utils.RoleOrganization, utils.RoleTracker, middlewares.RoleAdmin}

func main() {
	// Parse command line flags
	userID := flag.String("user", "", "User or organization id (required)")
	name := flag.String("name", "", "Display name (required)")
	role := flag.String("role", utils.RoleVolunteer, "Role: volunteer, organization, tracker or admin")
	configPath := flag.String("config", "config/config.prod.yml", "Path to config file")
	flag.Parse()

	if *userID == "" || *name == "" {
		fmt.Println("Error: user and name are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !slices.Contains(roles, *role) {
		fmt.Printf("Error: role must be one of %v\n", roles)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := utils.GenerateJWTToken(cfg.JWT.Secret, *userID, *name, *role, cfg.TokenExpiry())
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("Token for %s (%s), valid for %s:\n%s\n", *userID, *role, cfg.TokenExpiry(), token)
}
