// File: cmd/seed/main.go
//
// Seeds a handful of hospital codes for local development so the verify and
// management endpoints have something to work with.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"clinic-code-service/internal/config"
	pg "clinic-code-service/internal/infra/db/postgres"
	"clinic-code-service/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	doctorID := flag.String("doctor", "dev-doctor", "doctor ID to own the seeded codes")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeRepo := pg.NewHospitalCodeRepo(pool)
	usageRepo := pg.NewCodeUsageRepo(pool)
	tm := pg.NewTxManager(pool)
	logger := zerolog.New(io.Discard)
	uc := usecase.NewLifecycleUseCase(codeRepo, usageRepo, tm, &logger)

	existing, err := uc.ListByDoctor(ctx, *doctorID)
	if err != nil {
		log.Fatalf("list codes: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d codes already present for %s. No changes.\n", len(existing), *doctorID)
		for _, hc := range existing {
			fmt.Printf("  - %s (%s, active=%v, used=%d)\n", hc.Code, hc.Name, hc.IsActive, hc.UsageCount)
		}
		return
	}

	in30d := time.Now().Add(30 * 24 * time.Hour)
	cap10 := 10
	seed := []struct {
		Name      string
		MaxUsage  *int
		ExpiresAt *time.Time
	}{
		{"Front Desk", nil, nil},
		{"Cardiology Referrals", &cap10, nil},
		{"Spring Campaign", &cap10, &in30d},
	}

	for _, s := range seed {
		hc, err := uc.Create(ctx, *doctorID, s.Name, s.MaxUsage, s.ExpiresAt)
		if err != nil {
			log.Fatalf("create code %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (%s, id=%s)\n", hc.Code, hc.Name, hc.ID)
	}
	fmt.Println("Seeding complete.")
}
