// Smoke test against a running server:
//
//	BASE_URL=http://localhost:8000/api/v1 TOKEN=... go run ./scripts
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	baseURL = envOr("BASE_URL", "http://localhost:8000/api/v1")
	token   = os.Getenv("TOKEN")
	client  = &http.Client{Timeout: 2 * time.Minute}
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendRequest(method, path string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// step runs one request, prints the result and decodes it into out.
func step(title, method, path string, body, out interface{}) {
	color.Yellow("\n%s", title)
	resp, respBody, err := sendRequest(method, path, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
		prettyPrint(respBody)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(respBody)
	if out != nil {
		_ = json.Unmarshal(respBody, out)
	}
}

func main() {
	color.Cyan("Starting API smoke test against %s", baseURL)

	var survey struct {
		Id string `json:"id"`
	}
	step("[SURVEY] 1. Create survey", http.MethodPost, "/surveys/create", map[string]interface{}{
		"name":       "Smoke Test Pulse",
		"context":    "Quarterly engagement check",
		"created_by": "smoke_admin",
		"questions": []map[string]interface{}{
			{"id": "q1", "question": "How supported do you feel?", "response_type": "scale"},
			{"id": "q2", "question": "Anything else?", "response_type": "text", "mandatory": false},
		},
	}, &survey)

	step("[SURVEY] 2. Publish", http.MethodPost, "/surveys/publish", map[string]interface{}{
		"survey_id":       survey.Id,
		"target_audience": []string{"smoke_employee"},
	}, nil)

	step("[SURVEY] 3. Submit response", http.MethodPost, "/surveys/submit-response", map[string]interface{}{
		"survey_id": survey.Id,
		"user_id":   "smoke_employee",
		"user_name": "Smoke Employee",
		"responses": map[string]interface{}{"q1": 4},
	}, nil)

	step("[SURVEY] 4. Stats", http.MethodGet, "/surveys/"+survey.Id+"/stats", nil, nil)

	var thread struct {
		Id string `json:"id"`
	}
	step("[CHAT] 5. Create thread", http.MethodPost, "/chat/threads", map[string]interface{}{}, &thread)

	q := url.Values{"thread_id": {thread.Id}, "prompt": {"How can we improve onboarding?"}}
	step("[CHAT] 6. Stream with thread", http.MethodPost, "/chat/stream-with-thread?"+q.Encode(), nil, nil)

	step("[CHAT] 7. Thread after exchange", http.MethodGet, "/chat/threads/"+thread.Id, nil, nil)

	step("[AI] 8. Enhance survey name", http.MethodPost, "/chat/enhance-survey-name", map[string]interface{}{
		"name": "Smoke Test Pulse",
	}, nil)

	step("[AI] 9. Assistant health", http.MethodGet, "/chat/health", nil, nil)

	color.Cyan("\nSmoke test complete")
}
