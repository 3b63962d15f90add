package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayhub/internal/adapters/observability"
	"stayhub/internal/domain"
	"stayhub/internal/shared"
	mysqlrepo "stayhub/internal/storage/mysql"
)

// Seed fixture shape. IDs are explicit so reruns upsert instead of growing
// the catalog.
type seedFile struct {
	RoomTypes []struct {
		ID          int64    `json:"id"`
		Name        string   `json:"name"`
		Price       *float64 `json:"price"`
		Capacity    *int     `json:"capacity"`
		IsVIP       *bool    `json:"is_vip"`
		RoomCount   *int     `json:"room_count"`
		Description *string  `json:"description"`
	} `json:"room_types"`
	Services []struct {
		ID    int64    `json:"id"`
		Name  string   `json:"name"`
		Price *float64 `json:"price"`
	} `json:"services"`
	Staff []struct {
		ID             int64   `json:"id"`
		Specialization string  `json:"specialization"`
		Description    *string `json:"description"`
	} `json:"staff"`
	StaffServices []struct {
		StaffID   int64 `json:"staff_id"`
		ServiceID int64 `json:"service_id"`
		IsBasic   *bool `json:"is_basic"`
	} `json:"staff_services"`
	Clients []struct {
		Name           string  `json:"name"`
		Contact        *string `json:"contact"`
		IsTrusted      *bool   `json:"is_trusted"`
		PassportNumber string  `json:"passport_number"`
	} `json:"clients"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("read seed file failed")
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("parse seed file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	sem := semaphore.NewWeighted(int64(cfg.LoaderWorkers))

	// runAll bounds concurrency with the semaphore and waits for the batch;
	// StaffServices must not start before Staff and Services finished.
	runAll := func(name string, n int, job func(i int) error) {
		var wg sync.WaitGroup
		var failed int
		var mu sync.Mutex
		for i := 0; i < n; i++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer sem.Release(1)
				if err := job(i); err != nil {
					log.Warn().Err(err).Str("batch", name).Int("index", i).Msg("seed item failed")
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		log.Info().Str("batch", name).Int("total", n).Int("failed", failed).Msg("batch done")
	}

	runAll("room_types", len(seed.RoomTypes), func(i int) error {
		rt := seed.RoomTypes[i]
		return repo.UpsertRoomType(ctx, domain.RoomType{
			ID: rt.ID, Name: rt.Name, Price: rt.Price, Capacity: rt.Capacity,
			IsVIP: rt.IsVIP, RoomCount: rt.RoomCount, Description: rt.Description,
		})
	})
	runAll("services", len(seed.Services), func(i int) error {
		s := seed.Services[i]
		return repo.UpsertService(ctx, domain.Service{ID: s.ID, Name: s.Name, Price: s.Price})
	})
	runAll("staff", len(seed.Staff), func(i int) error {
		st := seed.Staff[i]
		return repo.UpsertStaff(ctx, domain.Staff{ID: st.ID, Specialization: st.Specialization, Description: st.Description})
	})
	runAll("staff_services", len(seed.StaffServices), func(i int) error {
		l := seed.StaffServices[i]
		return repo.LinkStaffService(ctx, domain.StaffService{StaffID: l.StaffID, ServiceID: l.ServiceID, IsBasic: l.IsBasic})
	})
	runAll("clients", len(seed.Clients), func(i int) error {
		c := seed.Clients[i]
		_, err := repo.CreateClient(ctx, domain.Client{
			Name: c.Name, Contact: c.Contact, IsTrusted: c.IsTrusted, PassportNumber: c.PassportNumber,
		})
		if errors.Is(err, domain.ErrDuplicatePassport) {
			return nil // already seeded
		}
		return err
	})

	log.Info().Msg("seeding completed")
}
