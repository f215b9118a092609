package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hrygo/bazaarbot/store"
)

const (
	// ApologyReply is sent when a reply cannot be composed.
	ApologyReply = "Sorry, I ran into a snag. Please try again with the product you want in Aizawl."
	// GreetingReply answers an empty inbound message.
	GreetingReply = "Hi! I can help you find products available in Aizawl. Tell me what you need."

	chitchatFallbackReply  = "Let me know whenever you're ready to shop."
	searchEmptyReply       = "I couldn’t find that item right now. Want me to try close alternatives?"
	availabilityEmptyReply = "I couldn’t find that item available right now. Want me to show close alternatives?"
	availabilityLeadReply  = "Yes, available right now. Here are options:"
	alternativesPrefix     = "Closest alternatives we have:\n"

	unknownShop    = "Unknown shop"
	priceOnRequest = "Price on request"
)

func orderReply(o *store.PendingOrder) string {
	return fmt.Sprintf("Order noted for \"%s\". Mock payment confirmed ✅. We will reach out shortly to %s.", o.RequestedProduct, o.Status)
}

// FormatProductList renders one markdown bullet per product.
func FormatProductList(products []*store.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, formatProduct(p))
	}
	return strings.Join(lines, "\n")
}

func formatProduct(p *store.Product) string {
	price := priceOnRequest
	if p.Price != nil && *p.Price != 0 {
		price = "₹" + strconv.FormatFloat(*p.Price, 'f', -1, 64)
	}

	vendor, place := unknownShop, ""
	if p.Vendor != nil {
		if p.Vendor.Name != "" {
			vendor = p.Vendor.Name
		}
		if p.Vendor.Location != "" {
			place = " - " + p.Vendor.Location
		}
	}

	stock := ""
	if !p.InStock() {
		stock = " (out of stock)"
	}
	return fmt.Sprintf("- **%s** (%s) @ %s%s%s", p.Name, price, vendor, place, stock)
}
