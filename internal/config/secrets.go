package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Paraswap.APIKey)
	redact(&out.OneInch.APIKey)
	redact(&out.CMC.APIKey)
	redact(&out.Coinlib.APIKey)
	redact(&out.Sentiment.BearerToken)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)
	redact(&out.Server.APIKey)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Pairs != nil {
		out.Pairs = append([]string(nil), cfg.Pairs...)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	}
	if cfg.Tokens != nil {
		out.Tokens = make(map[string]string, len(cfg.Tokens))
		for k, v := range cfg.Tokens {
			out.Tokens[k] = v
		}
	}
	if cfg.Chain.LendingRates != nil {
		out.Chain.LendingRates = make(map[string]float64, len(cfg.Chain.LendingRates))
		for k, v := range cfg.Chain.LendingRates {
			out.Chain.LendingRates[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
