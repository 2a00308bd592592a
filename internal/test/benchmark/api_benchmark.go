package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// APIBenchmark 并发调用同一个接口并统计结果
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 定义基准测试结果
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	P95Time        time.Duration `json:"p95_time"`
	MaxTime        time.Duration `json:"max_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

type requestResult struct {
	duration   time.Duration
	statusCode int
	err        error
}

// NewAPIBenchmark 创建新的API基准测试实例，concurrency 小于1时按1处理
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login 调用登录接口并返回令牌
func (b *APIBenchmark) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Data.Token == "" {
		return "", fmt.Errorf("login failed: %d %s", resp.StatusCode, body.Message)
	}
	return body.Data.Token, nil
}

// RunGET 执行GET请求的基准测试
func (b *APIBenchmark) RunGET(ctx context.Context, path string) *BenchmarkResult {
	return b.run(ctx, http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST 执行POST请求的基准测试
func (b *APIBenchmark) RunPOST(ctx context.Context, path string, payload interface{}) *BenchmarkResult {
	url := b.BaseURL + path
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{
			URL:    url,
			Method: http.MethodPost,
			Errors: []string{fmt.Sprintf("encode payload: %v", err)},
		}
	}
	return b.run(ctx, http.MethodPost, url, jsonData)
}

// run 用固定大小的工作池发送请求
func (b *APIBenchmark) run(ctx context.Context, method, url string, payload []byte) *BenchmarkResult {
	jobs := make(chan struct{})
	results := make(chan requestResult, b.Requests)
	var wg sync.WaitGroup

	startTime := time.Now()

	for i := 0; i < b.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- b.do(ctx, method, url, payload)
			}
		}()
	}

	for i := 0; i < b.Requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	close(results)

	return b.collect(method, url, time.Since(startTime), results)
}

func (b *APIBenchmark) do(ctx context.Context, method, url string, payload []byte) requestResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return requestResult{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return requestResult{err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return requestResult{duration: time.Since(start), statusCode: resp.StatusCode}
}

func (b *APIBenchmark) collect(method, url string, elapsed time.Duration, results <-chan requestResult) *BenchmarkResult {
	r := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		TotalTime:     elapsed,
		StatusCodes:   make(map[int]int),
	}

	var durations []time.Duration
	var total time.Duration
	for result := range results {
		if result.err != nil {
			r.FailureCount++
			r.Errors = append(r.Errors, result.err.Error())
			continue
		}
		durations = append(durations, result.duration)
		total += result.duration

		r.StatusCodes[result.statusCode]++
		if result.statusCode >= 200 && result.statusCode < 300 {
			r.SuccessCount++
		} else {
			r.FailureCount++
		}
	}

	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		r.AverageTime = total / time.Duration(len(durations))
		r.P95Time = durations[(len(durations)*95+99)/100-1]
		r.MaxTime = durations[len(durations)-1]
	}
	if elapsed > 0 {
		r.RequestsPerSec = float64(b.Requests) / elapsed.Seconds()
	}
	return r
}

// String 返回结果摘要
func (r *BenchmarkResult) String() string {
	return fmt.Sprintf("%s %s: %d requests, concurrency %d, ok %d, failed %d, avg %s, p95 %s, max %s, %.1f req/s, codes %v",
		r.Method, r.URL, r.TotalRequests, r.Concurrency, r.SuccessCount, r.FailureCount,
		r.AverageTime, r.P95Time, r.MaxTime, r.RequestsPerSec, r.StatusCodes)
}
