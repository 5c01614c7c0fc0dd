package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	html := `<html><head><title>x</title><style>p{color:red}</style></head>
<body><h1>Order Confirmation</h1><p>Thanks   for your order.</p>
<script>track()</script><div>Total: $12.34</div></body></html>`

	got := HTMLToText(html)

	assert.Contains(t, got, "Order Confirmation")
	assert.Contains(t, got, "Thanks for your order.")
	assert.Contains(t, got, "Total: $12.34")
	assert.NotContains(t, got, "track()")
	assert.NotContains(t, got, "color:red")
	assert.Less(t, strings.Index(got, "Order Confirmation"), strings.Index(got, "Total"))
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tracking link removed",
			in:   "View order https://click.example.com/abc?utm_source=x now",
			want: "View order [Link Removed] now",
		},
		{
			name: "plain link kept",
			in:   "Manage at https://shop.example.com/orders/123",
			want: "Manage at https://shop.example.com/orders/123",
		},
		{
			name: "whitespace collapsed",
			in:   "a   b\n\n\n\nc",
			want: "a b\n\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanContent(tt.in))
		})
	}
}

func TestTrackingLinks(t *testing.T) {
	html := `<a href="https://shop.com/order/1">order</a>
<a href="https://links.shop.com/ls/click?x=1">promo</a>
<a href="https://shop.com/unsubscribe">bye</a>`

	assert.Equal(t, []string{
		"https://links.shop.com/ls/click?x=1",
		"https://shop.com/unsubscribe",
	}, TrackingLinks(html))
}

func TestTruncate(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "hello.", Truncate("hello.", 100))
	})

	t.Run("cuts at sentence end", func(t *testing.T) {
		text := "First sentence here. Second sentence is longer than the limit allows"
		got := Truncate(text, 30)
		assert.True(t, strings.HasPrefix(got, "First sentence here."))
		assert.Contains(t, got, "[Content truncated]")
		assert.NotContains(t, got, "Second")
	})

	t.Run("never splits a rune", func(t *testing.T) {
		text := strings.Repeat("é", 50)
		got := Truncate(text, 7)
		body := strings.TrimSuffix(got, "\n\n[Content truncated]")
		assert.Equal(t, "ééé", body)
	})
}
