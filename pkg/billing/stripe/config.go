package stripe

import "time"

// Config holds Stripe credentials.
type Config struct {
	SecretKey        string        `env:"STRIPE_SECRET_KEY"`                        // SecretKey authenticates API calls.
	WebhookSecret    string        `env:"STRIPE_WEBHOOK_SECRET"`                    // WebhookSecret signs webhook deliveries (whsec_...).
	WebhookTolerance time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"` // WebhookTolerance bounds the signature timestamp age.
}
