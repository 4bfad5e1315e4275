// simulate fires concurrent booking requests at a running api-server to
// exercise the conflict arbiter: for each contested slot exactly one request
// should win with 201 and every other should lose with 409.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type simConfig struct {
	APIBaseURL string
	DoctorID   string
	Date       string
	StartTime  string
	EndTime    string
	Type       string
	Racers     int
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		DoctorID:   os.Getenv("SIM_DOCTOR_ID"),
		Date:       getEnv("SIM_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		StartTime:  getEnv("SIM_START", "09:00"),
		EndTime:    getEnv("SIM_END", "09:30"),
		Type:       getEnv("SIM_TYPE", "in_person"),
		Racers:     getIntEnv("SIM_RACERS", 20),
	}
	if cfg.DoctorID == "" {
		log.Fatal("SIM_DOCTOR_ID is required")
	}
	return cfg
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := loadSimConfig()

	log.Printf("racing %d bookings for doctor=%s %s %s-%s",
		cfg.Racers, cfg.DoctorID, cfg.Date, cfg.StartTime, cfg.EndTime)

	client := &http.Client{Timeout: 10 * time.Second}

	var created, conflicted, failed int64
	var wg sync.WaitGroup

	for i := 0; i < cfg.Racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status, body := postBooking(client, cfg, uuid.NewString())
			switch status {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				atomic.AddInt64(&failed, 1)
				log.Printf("unexpected status %d: %s", status, body)
			}
		}()
	}

	wg.Wait()

	log.Printf("done: created=%d conflicted=%d failed=%d", created, conflicted, failed)
	if created != 1 {
		log.Fatalf("expected exactly 1 winner, got %d", created)
	}
	log.Println("mutual exclusion held")
}

func postBooking(client *http.Client, cfg simConfig, patientID string) (int, string) {
	payload := map[string]any{
		"doctor_id":         cfg.DoctorID,
		"patient_id":        patientID,
		"date":              cfg.Date,
		"start_time":        cfg.StartTime,
		"end_time":          cfg.EndTime,
		"consultation_type": cfg.Type,
	}

	buf, _ := json.Marshal(payload)
	resp, err := client.Post(cfg.APIBaseURL+"/bookings", "application/json", bytes.NewReader(buf))
	if err != nil {
		return 0, fmt.Sprintf("request error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
