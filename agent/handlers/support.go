package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/textscan"
)

var (
	greetingKeywords = []string{
		"hello", "hi", "hey", "good morning", "good afternoon",
		"good evening", "howdy", "greetings", "what's up", "sup",
	}

	generalInquiryKeywords = []string{"help", "support", "question", "info", "information"}
)

type supportCategory struct {
	name     string
	keywords []string
	response string
}

// Category order is significant: the first matching category answers the
// message.
var supportCategories = []supportCategory{
	{
		name:     "shipping",
		keywords: []string{"shipping", "delivery", "ship", "when will", "arrive", "tracking", "fedex", "ups", "usps"},
		response: `**Shipping Information:**

**Standard Shipping:** 3-5 business days (FREE on orders $50+)
**Express Shipping:** 1-2 business days ($9.99)
**Overnight:** Next business day ($19.99)

**Tracking:** You'll receive a tracking number via email once your order ships
**International:** 7-14 business days (additional fees may apply)

Need help with a specific order? Please provide your order number!`,
	},
	{
		name:     "returns",
		keywords: []string{"return", "exchange", "send back", "return policy"},
		response: `**Return & Exchange Policy:**

**Return Window:** 30 days from delivery date
**Condition:** Items must be unused and in original packaging
**Refund:** Full refund to original payment method
**Exchanges:** Free exchanges for size/color (subject to availability)

**Return Process:**
1. Contact us with your order number
2. We'll provide a prepaid return label
3. Ship the item back to us
4. Refund processed within 3-5 business days

Want to start a return? Please provide your order number!`,
	},
	{
		name:     "payment",
		keywords: []string{"payment", "charge", "billing", "credit card", "paypal", "apple pay", "payment methods"},
		response: `**Payment Information:**

**Accepted Payment Methods:**
- All major credit cards (Visa, MasterCard, Amex, Discover)
- PayPal & PayPal Pay in 4
- Apple Pay & Google Pay
- Shop Pay & Afterpay

**Security:** All payments are encrypted and secure
**Currency:** USD (international cards accepted)
**Receipts:** Emailed immediately after purchase

Having payment issues? Please describe the problem and I'll help!`,
	},
	{
		name:     "account",
		keywords: []string{"account", "login", "password", "profile", "email", "update", "change"},
		response: `**Account Management:**

**Account Features:**
- Update email and shipping addresses
- Save payment methods securely
- Track order history
- Create wishlists
- Manage email preferences

**Need Help?**
- Forgot password? Use the "Reset Password" link
- Change email? Contact us with your order number
- Update address? Log in to your account settings

What specific account help do you need?`,
	},
	{
		name:     "contact",
		keywords: []string{"contact", "phone", "email", "speak to", "human", "representative", "hours"},
		response: `**Contact Information:**

**Customer Service:**
- Email: support@company.com
- Phone: 1-800-SUPPORT (1-800-786-7678)
- Live Chat: Available on our website

**Hours:**
- Monday-Friday: 9:00 AM - 6:00 PM EST
- Saturday: 10:00 AM - 4:00 PM EST
- Sunday: Closed

**Response Times:**
- Email: Within 24 hours
- Phone: Average wait time 2-3 minutes
- Chat: Immediate response during business hours

How else can I help you today?`,
	},
	{
		name:     "product",
		keywords: []string{"product", "item", "quality", "size", "color", "material", "specifications"},
		response: `**Product Information:**

**Product Details:**
- Size guides available on each product page
- Color accuracy guaranteed (30-day return if not satisfied)
- All materials and care instructions listed
- Customer reviews and ratings available

**Quality Guarantee:**
- 30-day satisfaction guarantee
- 1-year warranty on applicable items
- Premium quality materials

Looking for specific product information? Please let me know the item name or order number!`,
	},
}

const greetingResponse = `**Hello! Welcome to Customer Support!**

I'm here to help you with:
- Order inquiries and tracking
- Refunds and returns
- Shipping information
- Payment questions
- Account management
- Contact information

What can I help you with today?`

const generalHelpResponse = `**I'm here to help!**

I can assist you with:

**Orders & Tracking**
- Check order status
- Track shipments
- Update delivery information

**Returns & Refunds**
- Process returns
- Handle refunds
- Exchange items

**Shipping & Delivery**
- Shipping options and costs
- Delivery timeframes
- International shipping

**Payments & Billing**
- Payment methods
- Billing questions
- Transaction issues

**Account Support**
- Login help
- Update account info
- Manage preferences

What specific area would you like help with?`

var _ contractx.Handler = (*SupportHandler)(nil)

// SupportHandler is the stateless catch-all for general inquiries: specific
// category match first, then greetings, then generic help.
type SupportHandler struct {
	log interactionLog
}

func NewSupportHandler() *SupportHandler {
	return &SupportHandler{log: newInteractionLog()}
}

func (h *SupportHandler) Name() contractx.HandlerName {
	return contractx.HandlerSupport
}

func (h *SupportHandler) CanHandle(message string) bool {
	if textscan.ContainsAny(message, greetingKeywords...) {
		return true
	}
	if textscan.ContainsAny(message, generalInquiryKeywords...) {
		return true
	}
	for _, cat := range supportCategories {
		if textscan.ContainsAny(message, cat.keywords...) {
			return true
		}
	}
	return false
}

func (h *SupportHandler) Status() contractx.HandlerStatus {
	return contractx.HandlerStatus{
		Name:         h.Name(),
		Interactions: h.log.count(),
	}
}

func (h *SupportHandler) Process(_ context.Context, message string) contractx.RoutingResult {
	result := h.process(message)
	h.log.add(message, result.Message)
	return result
}

func (h *SupportHandler) process(message string) contractx.RoutingResult {
	for _, cat := range supportCategories {
		if textscan.ContainsAny(message, cat.keywords...) {
			log.Info().Str("category", cat.name).Msg("support category matched")
			return contractx.RoutingResult{
				Message:  cat.response,
				Handler:  h.Name(),
				Category: cat.name,
			}
		}
	}

	if textscan.ContainsAny(message, greetingKeywords...) {
		return contractx.RoutingResult{
			Message: greetingResponse,
			Handler: h.Name(),
			Suggestions: []string{
				"Check my order status",
				"I need a refund",
				"Shipping information",
				"Return policy",
				"Contact information",
			},
		}
	}

	return contractx.RoutingResult{
		Message:  generalHelpResponse,
		Handler:  h.Name(),
		Category: "general_help",
	}
}
