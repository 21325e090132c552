package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-scheduling/internal/db"
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

	if err := seedClinicHours(context.Background(), pool); err != nil {
		log.Fatalf("seed clinic hours: %v", err)
	}
	if err := seedRooms(context.Background(), pool, 6); err != nil {
		log.Fatalf("seed rooms: %v", err)
	}
	if err := seedProfessionals(context.Background(), pool, 20); err != nil {
		log.Fatalf("seed professionals: %v", err)
	}
	if err := seedClients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Println("seed complete")
}

// seedClinicHours opens the clinic Monday through Friday 09:00-18:00 and
// Saturday mornings, stored as minutes since midnight.
func seedClinicHours(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding clinic hours")

	type day struct {
		weekday int
		opens   int
		closes  int
		open    bool
	}

	week := []day{
		{0, 0, 0, false},     // Sunday
		{1, 540, 1080, true}, // Monday 09:00-18:00
		{2, 540, 1080, true},
		{3, 540, 1080, true},
		{4, 540, 1080, true},
		{5, 540, 1080, true},
		{6, 540, 780, true}, // Saturday 09:00-13:00
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, d := range week {
		_, err := tx.Exec(ctx, `
			INSERT INTO clinic_hours (weekday, opens_at, closes_at, is_open)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (weekday) DO UPDATE
			SET opens_at = EXCLUDED.opens_at, closes_at = EXCLUDED.closes_at, is_open = EXCLUDED.is_open
		`, d.weekday, d.opens, d.closes, d.open)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedRooms(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d rooms", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO rooms (id, name, capacity, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), "Room "+string(rune('A'+i)), gofakeit.Number(1, 6))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d professionals", count)

	specialties := []string{
		"Physiotherapy",
		"Psychology",
		"Nutrition",
		"Dermatology",
		"Speech Therapy",
		"General Practice",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO professionals (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return err
		}

		// Individual hours inside the clinic window; some start late, some
		// finish early.
		opens := 540 + 60*gofakeit.Number(0, 2)
		closes := 1080 - 60*gofakeit.Number(0, 4)

		for weekday := 1; weekday <= 5; weekday++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO professional_hours (professional_id, weekday, opens_at, closes_at, is_open)
				VALUES ($1, $2, $3, $4, $5)
			`, id, weekday, opens, closes, gofakeit.Number(0, 9) > 0)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO clients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	return nil
}
