package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/subsync/pkg/clientip"
)

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "remote addr only",
			remote: "203.0.113.7:5555",
			want:   "203.0.113.7",
		},
		{
			name:    "untrusted header ignored",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			remote:  "203.0.113.7:5555",
			want:    "203.0.113.7",
		},
		{
			name:    "first valid forwarded entry",
			trusted: []string{"x-forwarded-for"},
			headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.1"},
			remote:  "10.0.0.2:80",
			want:    "198.51.100.1",
		},
		{
			name:    "header order respected",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{"X-Real-IP": "198.51.100.9", "CF-Connecting-IP": "2001:db8::1"},
			remote:  "10.0.0.2:80",
			want:    "2001:db8::1",
		},
		{
			name:    "invalid header falls back to remote",
			trusted: []string{"X-Real-IP"},
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			remote:  "[2001:db8::2]:443",
			want:    "2001:db8::2",
		},
		{
			name:   "remote without port",
			remote: "192.0.2.10",
			want:   "192.0.2.10",
		},
		{
			name:   "unparseable remote",
			remote: "pipe",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(tt.trusted...).IP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.New().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1000"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.1", got)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	ex := clientip.LoggerExtractor()

	_, ok := ex(context.Background())
	assert.False(t, ok)

	attr, ok := ex(clientip.WithIP(context.Background(), "192.0.2.1"))
	assert.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}
