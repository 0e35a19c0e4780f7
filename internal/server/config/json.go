package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/openmool/openmool/internal/flagx"
	"github.com/openmool/openmool/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	AIToken          string         `json:"ai_token"`
	EmbeddingHost    string         `json:"embedding_host"`
	EmbeddingModel   string         `json:"embedding_model"`
	ExtractorHost    string         `json:"extractor_host"`
	ExtractorModel   string         `json:"extractor_model"`
	TranscriberHost  string         `json:"transcriber_host"`
	TranscriberModel string         `json:"transcriber_model"`
	PipelineWorkers  int            `json:"pipeline_workers"`
	JobTimeout       timex.Duration `json:"job_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.AIToken = c.AIToken
	config.EmbeddingHost = c.EmbeddingHost
	config.EmbeddingModel = c.EmbeddingModel
	config.ExtractorHost = c.ExtractorHost
	config.ExtractorModel = c.ExtractorModel
	config.TranscriberHost = c.TranscriberHost
	config.TranscriberModel = c.TranscriberModel
	config.PipelineWorkers = c.PipelineWorkers
	config.JobTimeout = time.Duration(c.JobTimeout.Duration)
}
