package paddle

import "time"

// Config holds Paddle credentials.
type Config struct {
	APIKey           string        `env:"PADDLE_API_KEY"`
	WebhookSecret    string        `env:"PADDLE_WEBHOOK_SECRET"`
	Environment      string        `env:"PADDLE_ENVIRONMENT" envDefault:"production"` // Environment is "production" or "sandbox".
	WebhookTolerance time.Duration `env:"PADDLE_WEBHOOK_TOLERANCE" envDefault:"5m"`   // WebhookTolerance bounds the signature timestamp age.
}
