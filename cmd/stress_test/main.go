// Command stress_test fires concurrent checkouts at a running storefront
// server and checks that idempotency and per-session serialization hold.
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"
)

const (
	totalSessions = 50
	userID        = "stress-user"
)

type cartProduct struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
}

func main() {
	baseURL := os.Getenv("STOREFRONT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := resty.New().SetTimeout(5 * time.Second)

	if _, err := client.R().Get(baseURL + "/health"); err != nil {
		log.Fatalf("server not reachable: %v", err)
	}

	product := cartProduct{
		ID:        "stress-item",
		Name:      "Stress Item",
		UnitPrice: decimal.NewFromInt(39999),
	}

	var placed atomic.Int32
	var failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalSessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			session := fmt.Sprintf("stress-session-%d-%s", n, uuid.New().String())

			resp, err := client.R().
				SetBody(map[string]interface{}{"product": product}).
				Post(fmt.Sprintf("%s/api/cart/%s/items", baseURL, session))
			if err != nil || resp.StatusCode() != http.StatusOK {
				failed.Add(1)
				return
			}

			resp, err = client.R().
				SetBody(map[string]string{
					"request_id": uuid.New().String(),
					"user_id":    userID,
				}).
				Post(fmt.Sprintf("%s/api/cart/%s/checkout", baseURL, session))
			if err != nil || resp.StatusCode() != http.StatusCreated {
				failed.Add(1)
				return
			}

			placed.Add(1)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Duplicate request id must be rejected, not re-placed.
	dupSession := "stress-dup-" + uuid.New().String()
	dupRequest := uuid.New().String()
	client.R().
		SetBody(map[string]interface{}{"product": product}).
		Post(fmt.Sprintf("%s/api/cart/%s/items", baseURL, dupSession))
	first, _ := client.R().
		SetBody(map[string]string{"request_id": dupRequest, "user_id": userID}).
		Post(fmt.Sprintf("%s/api/cart/%s/checkout", baseURL, dupSession))
	second, _ := client.R().
		SetBody(map[string]string{"request_id": dupRequest, "user_id": userID}).
		Post(fmt.Sprintf("%s/api/cart/%s/checkout", baseURL, dupSession))

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Sessions:   %d\n", totalSessions)
	fmt.Printf("Placed:     %d\n", placed.Load())
	fmt.Printf("Failed:     %d\n", failed.Load())
	fmt.Printf("Duration:   %v\n", elapsed)
	fmt.Println("==========================================")

	if placed.Load() == totalSessions {
		fmt.Println("PASS: every session produced exactly one order")
	} else {
		fmt.Printf("FAIL: expected %d orders, got %d\n", totalSessions, placed.Load())
	}

	if first != nil && first.StatusCode() == http.StatusCreated &&
		second != nil && second.StatusCode() == http.StatusConflict {
		fmt.Println("PASS: duplicate request id rejected with 409")
	} else {
		fmt.Println("FAIL: duplicate request id was not rejected")
	}
}
