package environment

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfig holds run-wide settings assembled from vephone.toml and the
// process environment. Environment variables override file values.
type EnvConfig struct {
	APIEndpoint string
	APIToken    string
	ProductId   string
	PodIdList   []string

	TosBucket   string
	TosEndpoint string
	TosRegion   string

	SystemPrompt string
	CaseFilter   []string

	TimeoutS            int
	PollIntervalS       float64
	RunAPI              string
	UseBase64Screenshot bool
	ScreenRecord        bool
	ExecMode            string

	ResultNatsURL     string
	ResultNatsSubject string
	ResultSqsURL      string
	CompressResults   bool
}

// fileConfig maps the optional vephone.toml run configuration file.
type fileConfig struct {
	Endpoint  string `toml:"endpoint"`
	ProductId string `toml:"product_id"`
	PodIds    string `toml:"pod_id_list"`

	TimeoutS            int     `toml:"case_timeout_s"`
	PollIntervalS       float64 `toml:"poll_interval_s"`
	RunAPI              string  `toml:"run_api"`
	UseBase64Screenshot *bool   `toml:"use_base64_screenshot"`
	ScreenRecord        *bool   `toml:"screen_record"`
	ExecMode            string  `toml:"exec_mode"`

	SystemPrompt string `toml:"system_prompt"`
	CaseFilter   string `toml:"case_filter"`

	ResultNatsURL     string `toml:"result_nats_url"`
	ResultNatsSubject string `toml:"result_nats_subject"`
	ResultSqsURL      string `toml:"result_sqs_url"`
	CompressResults   *bool  `toml:"compress_results"`
}

const defaultConfigPath = "vephone.toml"

// ReadEnvConfig loads .env, the optional TOML config and the process
// environment into one EnvConfig. A missing .env or TOML file is not an
// error; a malformed TOML file is.
func ReadEnvConfig() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	result := &EnvConfig{
		TimeoutS:            600,
		PollIntervalS:       2.0,
		RunAPI:              "one_step",
		UseBase64Screenshot: true,
		ExecMode:            "auto",
		ResultNatsSubject:   "vephone.results",
	}

	path := os.Getenv("VEPHONE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	if data, err := os.ReadFile(path); err == nil {
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		applyFileConfig(result, &fc)
	}

	applyEnv(result)

	if result.APIEndpoint == "" {
		return nil, fmt.Errorf("API endpoint is not configured (API_ENDPOINT)")
	}
	return result, nil
}

func applyFileConfig(cfg *EnvConfig, fc *fileConfig) {
	if fc.Endpoint != "" {
		cfg.APIEndpoint = fc.Endpoint
	}
	if fc.ProductId != "" {
		cfg.ProductId = fc.ProductId
	}
	if fc.PodIds != "" {
		cfg.PodIdList = SplitCommaList(fc.PodIds)
	}
	if fc.TimeoutS > 0 {
		cfg.TimeoutS = fc.TimeoutS
	}
	if fc.PollIntervalS > 0 {
		cfg.PollIntervalS = fc.PollIntervalS
	}
	if fc.RunAPI != "" {
		cfg.RunAPI = fc.RunAPI
	}
	if fc.UseBase64Screenshot != nil {
		cfg.UseBase64Screenshot = *fc.UseBase64Screenshot
	}
	if fc.ScreenRecord != nil {
		cfg.ScreenRecord = *fc.ScreenRecord
	}
	if fc.ExecMode != "" {
		cfg.ExecMode = fc.ExecMode
	}
	if fc.SystemPrompt != "" {
		cfg.SystemPrompt = fc.SystemPrompt
	}
	if fc.CaseFilter != "" {
		cfg.CaseFilter = SplitCommaList(fc.CaseFilter)
	}
	if fc.ResultNatsURL != "" {
		cfg.ResultNatsURL = fc.ResultNatsURL
	}
	if fc.ResultNatsSubject != "" {
		cfg.ResultNatsSubject = fc.ResultNatsSubject
	}
	if fc.ResultSqsURL != "" {
		cfg.ResultSqsURL = fc.ResultSqsURL
	}
	if fc.CompressResults != nil {
		cfg.CompressResults = *fc.CompressResults
	}
}

func applyEnv(cfg *EnvConfig) {
	if v := os.Getenv("API_ENDPOINT"); v != "" {
		cfg.APIEndpoint = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("PRODUCT_ID"); v != "" {
		cfg.ProductId = v
	}
	if v := os.Getenv("POD_ID_LIST"); v != "" {
		cfg.PodIdList = SplitCommaList(v)
	}
	if v := os.Getenv("TOS_BUCKET"); v != "" {
		cfg.TosBucket = v
	}
	if v := os.Getenv("TOS_ENDPOINT"); v != "" {
		cfg.TosEndpoint = v
	}
	if v := os.Getenv("TOS_REGION"); v != "" {
		cfg.TosRegion = v
	}
	if v := os.Getenv("SYSTEM_PROMPT"); v != "" {
		cfg.SystemPrompt = v
	}
	if v := os.Getenv("CASE_FILTER"); v != "" {
		cfg.CaseFilter = SplitCommaList(v)
	}
	if v := os.Getenv("CASE_TIMEOUT_S"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.TimeoutS = int(n)
		}
	}
	if v := os.Getenv("POLL_INTERVAL_S"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.PollIntervalS = n
		}
	}
	if v := os.Getenv("RUN_API"); v != "" {
		cfg.RunAPI = v
	}
	if v, ok := envBool("USE_BASE64_SCREENSHOT"); ok {
		cfg.UseBase64Screenshot = v
	}
	if v, ok := envBool("SCREEN_RECORD"); ok {
		cfg.ScreenRecord = v
	}
	if v := os.Getenv("EXEC_MODE"); v != "" {
		cfg.ExecMode = v
	}
	if v := os.Getenv("RESULT_NATS_URL"); v != "" {
		cfg.ResultNatsURL = v
	}
	if v := os.Getenv("RESULT_NATS_SUBJECT"); v != "" {
		cfg.ResultNatsSubject = v
	}
	if v := os.Getenv("RESULT_SQS_URL"); v != "" {
		cfg.ResultSqsURL = v
	}
	if v, ok := envBool("RESULTS_COMPRESS"); ok {
		cfg.CompressResults = v
	}
}

// SplitCommaList splits a comma separated list, trimming whitespace and
// dropping empty entries.
func SplitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
