package checkout

// Config holds the URLs the provider redirects back to.
// SuccessPath and CancelPath are appended to BaseURL.
type Config struct {
	BaseURL     string `env:"APP_BASE_URL"`
	SuccessPath string `env:"CHECKOUT_SUCCESS_PATH" envDefault:"/?session_id={CHECKOUT_SESSION_ID}"`
	CancelPath  string `env:"CHECKOUT_CANCEL_PATH" envDefault:"/subscribe"`
}
