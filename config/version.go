package config

var (
	Version    string = "dev"
	CommitHash string = ""
)
