// Генератор нагрузки для сервиса обмена Pull Request: смешивает подписанные
// вебхуки GitHub и slash-команды Slack в заданной пропорции и печатает
// сводку по латентности.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type runConfig struct {
	BaseURL        string
	WebhookSecret  string
	SlackToken     string
	Organization   string
	Projects       int
	PRsPerProject  int
	WebhookShare   float64
	RPS            float64
	Duration       time.Duration
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	ReportPath     string
}

type latencySummary struct {
	Samples   int     `json:"samples"`
	AverageMs float64 `json:"average_ms"`
	P95Ms     float64 `json:"p95_ms"`
	MaxMs     float64 `json:"max_ms"`
}

type endpointStats struct {
	name      string
	mu        sync.Mutex
	latencies []time.Duration
	failures  int
}

func (s *endpointStats) record(d time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.failures++
		return
	}
	s.latencies = append(s.latencies, d)
}

func (s *endpointStats) summary() latencySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 {
		return latencySummary{}
	}
	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	p95Idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if p95Idx < 0 {
		p95Idx = 0
	}
	return latencySummary{
		Samples:   len(sorted),
		AverageMs: float64(total.Milliseconds()) / float64(len(sorted)),
		P95Ms:     float64(sorted[p95Idx].Milliseconds()),
		MaxMs:     float64(sorted[len(sorted)-1].Milliseconds()),
	}
}

type report struct {
	BaseURL      string                    `json:"base_url"`
	RPS          float64                   `json:"rps"`
	Duration     string                    `json:"duration"`
	WebhookShare float64                   `json:"webhook_share"`
	Failures     map[string]int            `json:"failures"`
	Latencies    map[string]latencySummary `json:"latencies"`
}

func main() {
	cfg := parseFlags()

	client := &http.Client{Timeout: cfg.RequestTimeout}
	waitForHealth(client, cfg)

	webhookStats := &endpointStats{name: "webhook"}
	statusStats := &endpointStats{name: "status"}

	// Прогрев: команда статуса инициирует холодную сборку кеша.
	sendStatus(client, cfg, "prtrade project-0", statusStats)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.RPS))
	defer ticker.Stop()
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for time.Now().Before(deadline) {
		<-ticker.C
		wg.Add(1)
		isWebhook := rng.Float64() < cfg.WebhookShare
		project := fmt.Sprintf("project-%d", rng.Intn(cfg.Projects))
		number := 1 + rng.Intn(cfg.PRsPerProject)
		go func() {
			defer wg.Done()
			if isWebhook {
				sendWebhook(client, cfg, project, number, webhookStats)
				return
			}
			sendStatus(client, cfg, fmt.Sprintf("prtrade %s", project), statusStats)
		}()
	}
	wg.Wait()

	writeReport(cfg, webhookStats, statusStats)
}

func parseFlags() runConfig {
	cfg := runConfig{}
	flag.StringVar(&cfg.BaseURL, "base-url", "http://127.0.0.1:8080", "адрес сервиса")
	flag.StringVar(&cfg.WebhookSecret, "webhook-secret", "secret", "секрет подписи вебхуков")
	flag.StringVar(&cfg.SlackToken, "slack-token", "token", "токен Slack-интеграции")
	flag.StringVar(&cfg.Organization, "organization", "acme", "организация в URL pull request")
	flag.IntVar(&cfg.Projects, "projects", 10, "число проектов в сценарии")
	flag.IntVar(&cfg.PRsPerProject, "prs-per-project", 50, "число PR на проект")
	flag.Float64Var(&cfg.WebhookShare, "webhook-share", 0.3, "доля вебхуков среди запросов")
	flag.Float64Var(&cfg.RPS, "rps", 50, "запросов в секунду")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "длительность прогона")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", 5*time.Second, "таймаут запроса")
	flag.DurationVar(&cfg.HealthTimeout, "health-timeout", 10*time.Second, "ожидание готовности сервиса")
	flag.StringVar(&cfg.ReportPath, "report", "", "путь к JSON-отчёту (stdout если пусто)")
	flag.Parse()

	if cfg.RPS <= 0 {
		log.Fatal("rps must be positive")
	}
	return cfg
}

func waitForHealth(client *http.Client, cfg runConfig) {
	deadline := time.Now().Add(cfg.HealthTimeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(cfg.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	log.Fatalf("service at %s did not become healthy", cfg.BaseURL)
}

func sendWebhook(client *http.Client, cfg runConfig, project string, number int, stats *endpointStats) {
	actions := []string{"labeled", "synchronize", "closed"}
	body, err := json.Marshal(map[string]any{
		"action": actions[rand.Intn(len(actions))],
		"label":  map[string]string{"name": "ready-for-review"},
		"pull_request": map[string]any{
			"number":    number,
			"title":     fmt.Sprintf("Load PR %d", number),
			"html_url":  fmt.Sprintf("https://github.com/%s/%s/pull/%d", cfg.Organization, project, number),
			"additions": rand.Intn(500),
			"deletions": rand.Intn(200),
			"commits":   1 + rand.Intn(10),
		},
	})
	if err != nil {
		stats.record(0, false)
		return
	}

	mac := hmac.New(sha1.New, []byte(cfg.WebhookSecret))
	mac.Write(body)
	req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+"/api/v1/pull-requests/cache", bytes.NewReader(body))
	if err != nil {
		stats.record(0, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature", "sha1="+hex.EncodeToString(mac.Sum(nil)))

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		stats.record(elapsed, false)
		return
	}
	resp.Body.Close()
	stats.record(elapsed, resp.StatusCode == http.StatusOK)
}

func sendStatus(client *http.Client, cfg runConfig, text string, stats *endpointStats) {
	form := url.Values{
		"token":        {cfg.SlackToken},
		"trigger_word": {"prtrade"},
		"text":         {text},
	}

	start := time.Now()
	resp, err := client.Post(
		cfg.BaseURL+"/api/v1/pull-requests/status",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	elapsed := time.Since(start)
	if err != nil {
		stats.record(elapsed, false)
		return
	}
	resp.Body.Close()
	stats.record(elapsed, resp.StatusCode == http.StatusOK)
}

func writeReport(cfg runConfig, stats ...*endpointStats) {
	rep := report{
		BaseURL:      cfg.BaseURL,
		RPS:          cfg.RPS,
		Duration:     cfg.Duration.String(),
		WebhookShare: cfg.WebhookShare,
		Failures:     make(map[string]int),
		Latencies:    make(map[string]latencySummary),
	}
	for _, s := range stats {
		s.mu.Lock()
		rep.Failures[s.name] = s.failures
		s.mu.Unlock()
		rep.Latencies[s.name] = s.summary()
	}

	encoded, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	if cfg.ReportPath == "" {
		fmt.Println(string(encoded))
		return
	}
	if err := os.WriteFile(cfg.ReportPath, append(encoded, '\n'), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
}
