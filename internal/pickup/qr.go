package pickup

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// Payload is what the seller's scanner reads at the counter.
func Payload(orderID uint64, code string) string {
	return fmt.Sprintf("secondchances:order:%d:%s", orderID, code)
}

// QRCode renders the pickup payload as a PNG.
func QRCode(orderID uint64, code string) ([]byte, error) {
	return qrcode.Encode(Payload(orderID, code), qrcode.Medium, qrSize)
}
