package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/joho/godotenv"
)

type probe struct {
	name   string
	method string
	path   string
	body   interface{}
	expect []int
}

func main() {
	baseURL := flag.String("url", "", "server base URL (default: http://localhost:$PORT)")
	lat := flag.Float64("lat", 15.4989, "latitude used for the nearby alerts probe")
	lng := flag.Float64("lng", 73.8180, "longitude used for the nearby alerts probe")
	flag.Parse()

	fmt.Println("🔍 Goa Eco-Guard - API Connectivity Test")
	fmt.Println("========================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	target := *baseURL
	if target == "" {
		target = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(target, "/")).
		SetTimeout(10 * time.Second)

	probes := []probe{
		{name: "Health", method: "GET", path: "/health", expect: []int{200}},
		{name: "Metrics", method: "GET", path: "/metrics", expect: []int{200}},
		{name: "Active reports", method: "GET", path: "/api/reports", expect: []int{200}},
		{name: "Hotspots", method: "GET", path: "/api/hotspots", expect: []int{200}},
		{name: "Nearby alerts", method: "GET", path: fmt.Sprintf("/api/alerts/nearby?lat=%f&lng=%f", *lat, *lng), expect: []int{200}},
		{name: "Nearby alerts without location", method: "GET", path: "/api/alerts/nearby", expect: []int{400}},
		{name: "Report stats", method: "GET", path: "/api/report-stats", expect: []int{200}},
		{name: "Wildlife sightings", method: "GET", path: "/api/sightings", expect: []int{200}},
		{name: "Upcoming missions", method: "GET", path: "/api/missions", expect: []int{200}},
		{
			name:   "Submission validation",
			method: "POST",
			path:   "/api/reports",
			body:   map[string]string{"description": "connectivity probe without coordinates"},
			expect: []int{400},
		},
	}

	fmt.Printf("\n📡 Probing %s...\n", target)
	fmt.Println(strings.Repeat("-", 40))

	failures := 0
	for _, p := range probes {
		if !runProbe(client, p) {
			failures++
		}
	}

	if failures > 0 {
		fmt.Printf("\n❌ %d of %d probes failed\n", failures, len(probes))
		fmt.Println("\n💡 Next steps:")
		fmt.Println("   • Make sure the server is running: go run ./cmd/ecoguard")
		fmt.Println("   • Check DB_PATH and REDIS_ADDR in your .env file")
		return
	}

	fmt.Println("\n✅ API connectivity test completed!")
}

func runProbe(client *resty.Client, p probe) bool {
	fmt.Printf("🔸 Testing %s... ", p.name)

	req := client.R()
	if p.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(p.body)
	}

	start := time.Now()
	resp, err := req.Execute(p.method, p.path)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}

	for _, code := range p.expect {
		if resp.StatusCode() == code {
			fmt.Printf("✅ %d (%v)\n", resp.StatusCode(), time.Since(start).Round(time.Millisecond))
			return true
		}
	}

	body := string(resp.Body())
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	fmt.Printf("❌ unexpected status %d: %s\n", resp.StatusCode(), body)
	return false
}
