package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedWeeklyRules(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed weekly rules: %v", err)
	}
	if err := seedExceptions(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed exceptions: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}
	slotChoices := []int{15, 20, 30, 45, 60}
	bufferChoices := []int{0, 5, 10}

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())

		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, slot_minutes, buffer_minutes, requires_approval, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`,
			id,
			name,
			gofakeit.RandomString(specialties),
			gofakeit.RandomInt(slotChoices),
			gofakeit.RandomInt(bufferChoices),
			gofakeit.Bool(),
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func seedWeeklyRules(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Printf("seeding weekly rules for %d doctors", len(doctorIDs))

	types := []string{"in_person", "video"}

	for _, doctorID := range doctorIDs {
		// Weekday mornings plus a random subset of afternoons
		for wd := 1; wd <= 5; wd++ {
			_, err := pool.Exec(ctx, `
				INSERT INTO weekly_availability_rules
					(id, doctor_id, weekday, start_min, end_min, consultation_type, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
			`, uuid.New(), doctorID, wd, 9*60, 12*60, gofakeit.RandomString(types))
			if err != nil {
				return err
			}

			if gofakeit.Bool() {
				_, err := pool.Exec(ctx, `
					INSERT INTO weekly_availability_rules
						(id, doctor_id, weekday, start_min, end_min, consultation_type, active, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
				`, uuid.New(), doctorID, wd, 14*60, 17*60, gofakeit.RandomString(types))
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func seedExceptions(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Printf("seeding exceptions for %d doctors", len(doctorIDs))

	for _, doctorID := range doctorIDs {
		if !gofakeit.Bool() {
			continue
		}

		// A day off within the next two weeks
		date := availability.DateOf(time.Now().AddDate(0, 0, gofakeit.Number(1, 14)))
		_, err := pool.Exec(ctx, `
			INSERT INTO availability_exceptions (id, doctor_id, date, start_min, end_min, kind, created_at)
			VALUES ($1, $2, $3, $4, $5, 'blocked', now())
		`, uuid.New(), doctorID, date, 0, 24*60)
		if err != nil {
			return err
		}
	}

	return nil
}
