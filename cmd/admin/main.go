package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeForge/internal/config"
	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

func main() {
	var (
		dbHost  = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(&database.Template{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	seeded := 0
	for _, tpl := range defaultTemplates() {
		var existing database.Template
		switch err := db.Where("name = ?", tpl.Name).First(&existing).Error; {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			log.Fatalf("query template %q: %v", tpl.Name, err)
		}

		if err := db.Create(&tpl).Error; err != nil {
			log.Fatalf("create template %q: %v", tpl.Name, err)
		}
		seeded++
	}

	fmt.Printf("模板目录就绪，新写入 %d 个模板。\n", seeded)
}

func defaultTemplates() []database.Template {
	fullOrder := []section.Variant{
		section.VariantPersonalInfo,
		section.VariantSummary,
		section.VariantExperience,
		section.VariantEducation,
		section.VariantSkills,
		section.VariantProjects,
		section.VariantCertifications,
		section.VariantLanguages,
	}
	compactOrder := []section.Variant{
		section.VariantPersonalInfo,
		section.VariantSummary,
		section.VariantExperience,
		section.VariantEducation,
		section.VariantSkills,
	}
	creativeOrder := []section.Variant{
		section.VariantPersonalInfo,
		section.VariantSummary,
		section.VariantProjects,
		section.VariantSkills,
		section.VariantExperience,
		section.VariantEducation,
	}

	return []database.Template{
		{
			Name:        "Modern Professional",
			Description: "Clean and contemporary design perfect for corporate roles",
			Structure:   structureJSON(fullOrder, "single-column"),
			Styling:     stylingJSON("Inter", "#2563eb", "normal"),
		},
		{
			Name:        "Classic Executive",
			Description: "Traditional format ideal for senior positions",
			Structure:   structureJSON(fullOrder, "single-column"),
			Styling:     stylingJSON("Georgia", "#1f2937", "wide"),
		},
		{
			Name:        "Creative Portfolio",
			Description: "Bold design for creative professionals",
			Structure:   structureJSON(creativeOrder, "two-column"),
			Styling:     stylingJSON("Poppins", "#7c3aed", "normal"),
			IsPremium:   true,
		},
		{
			Name:        "Minimalist",
			Description: "Simple and elegant with focus on content",
			Structure:   structureJSON(compactOrder, "single-column"),
			Styling:     stylingJSON("Helvetica", "#111827", "narrow"),
		},
	}
}

func structureJSON(order []section.Variant, layout string) datatypes.JSON {
	names := make([]string, 0, len(order))
	for _, v := range order {
		names = append(names, string(v))
	}
	data, err := json.Marshal(map[string]any{
		"sections": names,
		"layout":   layout,
	})
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(data)
}

func stylingJSON(fontFamily, accentColor, spacing string) datatypes.JSON {
	data, err := json.Marshal(map[string]any{
		"font_family":  fontFamily,
		"accent_color": accentColor,
		"spacing":      spacing,
	})
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(data)
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
