package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// kioskcheck probes a running kiosk agent during device bring-up: it walks
// the read-only endpoints plus one full mock-scan workflow and reports what
// answered. Run it on the kiosk itself after provisioning.

type check struct {
	Name     string
	Method   string
	Path     string
	Body     string
	Critical bool
}

type result struct {
	Check    check
	Status   int
	Duration time.Duration
	Error    error
	Body     []byte
}

func main() {
	var (
		base    string
		token   string
		timeout time.Duration
		scan    bool
	)

	flag.StringVar(&base, "base", "http://localhost:8090/api/v1", "Agent API base URL")
	flag.StringVar(&token, "token", "", "Staff access token for the workflow probe")
	flag.DurationVar(&timeout, "timeout", 15*time.Second, "HTTP client timeout")
	flag.BoolVar(&scan, "scan", false, "Also run one full mock-scan workflow")
	flag.Parse()

	client := &http.Client{Timeout: timeout}

	checks := []check{
		{Name: "health", Method: http.MethodGet, Path: "/health", Critical: true},
		{Name: "ready", Method: http.MethodGet, Path: "/ready", Critical: true},
		{Name: "scanner status", Method: http.MethodGet, Path: "/scanner/status", Critical: true},
		{Name: "auth session", Method: http.MethodGet, Path: "/auth/session", Critical: false},
		{Name: "pending scans", Method: http.MethodGet, Path: "/checkin/pending", Critical: false},
	}

	var results []result
	failed := 0
	for _, c := range checks {
		res := perform(client, base, c)
		if res.Error != nil || res.Status >= 500 {
			if c.Critical {
				failed++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	if scan {
		if err := runWorkflow(client, base, token); err != nil {
			fmt.Printf("workflow probe: FAILED (%v)\n", err)
			failed++
		} else {
			fmt.Println("workflow probe: OK")
		}
	}

	if failed > 0 {
		fmt.Printf("%d critical check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("all critical checks passed")
}

func perform(client *http.Client, base string, c check) result {
	res := result{Check: c}

	var body io.Reader
	if c.Body != "" {
		body = strings.NewReader(c.Body)
	}
	req, err := http.NewRequest(c.Method, strings.TrimRight(base, "/")+c.Path, body)
	if err != nil {
		res.Error = err
		return res
	}
	if c.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Body, _ = io.ReadAll(resp.Body)
	return res
}

// runWorkflow creates a session, scans once and resets. With the mock
// adapter active this exercises the whole path without hardware; the tag
// lookup needs a valid staff token, so the probe logs in first when one is
// provided.
func runWorkflow(client *http.Client, base, token string) error {
	if token != "" {
		login := fmt.Sprintf(`{"access_token":%q,"user_id":1,"username":"kioskcheck"}`, token)
		res := perform(client, base, check{Method: http.MethodPut, Path: "/auth/session", Body: login})
		if res.Error != nil {
			return fmt.Errorf("login: %w", res.Error)
		}
		if res.Status != http.StatusOK {
			return fmt.Errorf("login: status %d", res.Status)
		}
	}

	res := perform(client, base, check{Method: http.MethodPost, Path: "/sessions"})
	if res.Error != nil {
		return fmt.Errorf("create session: %w", res.Error)
	}
	if res.Status != http.StatusCreated {
		return fmt.Errorf("create session: status %d", res.Status)
	}

	var envelope struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	id := envelope.Data.SessionID
	if id == "" {
		return fmt.Errorf("no session id in response")
	}

	res = perform(client, base, check{Method: http.MethodPost, Path: "/sessions/" + id + "/scan"})
	if res.Error != nil {
		return fmt.Errorf("scan: %w", res.Error)
	}
	if res.Status != http.StatusOK {
		return fmt.Errorf("scan: status %d", res.Status)
	}

	var snap struct {
		Data struct {
			Phase       string `json:"phase"`
			ScannedTag  string `json:"scanned_tag"`
			FailureCode string `json:"failure_code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	fmt.Printf("  scan phase=%s tag=%s failure=%s\n", snap.Data.Phase, snap.Data.ScannedTag, snap.Data.FailureCode)

	res = perform(client, base, check{Method: http.MethodPost, Path: "/sessions/" + id + "/reset"})
	if res.Error != nil || res.Status != http.StatusOK {
		return fmt.Errorf("reset failed")
	}
	perform(client, base, check{Method: http.MethodDelete, Path: "/sessions/" + id})

	if snap.Data.Phase != "scanned" && snap.Data.FailureCode == "" {
		return fmt.Errorf("unexpected phase %q", snap.Data.Phase)
	}
	return nil
}

func printReport(results []result) {
	fmt.Println("Kiosk Agent Bring-up Report")
	fmt.Println("===========================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Status >= 400 {
			status = "WARN"
		}
		fmt.Printf("[%s] %s %s %s\n", status, res.Check.Method, res.Check.Path, res.Check.Name)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		if len(res.Body) > 0 && len(res.Body) < 300 {
			fmt.Printf("  Body: %s\n", bytes.TrimSpace(res.Body))
		}
	}
}
