package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceipt(t *testing.T) {
	doc, err := New().GenerateReceipt(context.Background(), ReceiptData{
		ReceiptNumber: "2093805801289289728",
		DatePaid:      "14 March 2025",
		BuyerEmail:    "parent@example.com",
		PackageName:   "Starter pack",
		Credits:       50,
		AmountPaid:    "£5.00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestReceiptTitleUsesASCII(t *testing.T) {
	for _, r := range receiptTitle {
		assert.Less(t, int(r), 128, "title rune %q outside the core font range", r)
	}
}
