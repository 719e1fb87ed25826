package config

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultYAML is written on first run so users have something to edit
// instead of starting from the docs.
const DefaultYAML = `app:
  data_dir: ""          # defaults to the directory holding this file
  port: 8000
  log_level: info

crawler:
  user_agent: "jobharvest/1.0 (+local)"
  request_timeout: 30s
  source_timeout: 5m
  max_parallel_sources: 3
  per_host_rps: 0.5
  per_host_burst: 2
  stale_run_after: 30m

filters:
  keywords:
    - "데이터 분석"
    - "data analyst"
    - "데이터 사이언티스트"
    - "data scientist"
    - "데이터 엔지니어"
    - "data engineer"
    - "머신러닝"
    - "ml engineer"
  experience_any:
    - "신입"
    - "경력무관"
    - "경력 무관"
    - "인턴"
    - "intern"
    - "junior"
    - "entry"
  exclude:
    - "시니어"
    - "senior"
    - "팀장"
    - "리드"
    - "lead"

sources:
  - id: wanted
    kind: wanted
    enabled: true
    fetch_interval: 1h
    categories: [518, 655, 656, 1024]
    page_size: 100
  - id: saramin
    kind: saramin
    enabled: true
    fetch_interval: 1h
    keywords: ["데이터 분석", "Data Analyst", "데이터 사이언티스트"]
  - id: inthiswork
    kind: inthiswork
    enabled: true
    fetch_interval: "@every 2h"
`

// EnsureUserConfig materializes the default config under dataDir when the
// user has none yet, and returns the path either way.
func EnsureUserConfig(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.WriteFile(userPath, []byte(DefaultYAML), 0o644); err != nil {
		return "", err
	}
	return userPath, nil
}
