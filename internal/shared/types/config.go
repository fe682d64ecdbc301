package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	DataDir         string   `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	OutputDir       string   `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	YearSort        int      `json:"year_sort" yaml:"year_sort" toml:"year_sort"`
	ReportType      []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	DownloadWorkers int      `json:"download_workers" yaml:"download_workers" toml:"download_workers"`
	ExtractWorkers  int      `json:"extract_workers" yaml:"extract_workers" toml:"extract_workers"`
	ParseWorkers    int      `json:"parse_workers" yaml:"parse_workers" toml:"parse_workers"`
	S3Bucket        string   `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Prefix        string   `json:"s3_prefix" yaml:"s3_prefix" toml:"s3_prefix"`
	AWSProfile      string   `json:"aws_profile" yaml:"aws_profile" toml:"aws_profile"`
	Skip            []string `json:"skip" yaml:"skip" toml:"skip"`
}
