package mailer

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

// letter is the data both templates render
type letter struct {
	Admin    bool
	To       string
	FullName string
	OrderId  string
	Product  string
	Size     string
	Address  string
}

func (l letter) Title() string {
	if l.Admin {
		return "New Order Notification"
	}
	return "Order Confirmation"
}

const htmlBody = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Product}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background: #0066CC; color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0;">
<h1>{{if .Admin}}New Order Received{{else}}Order Confirmed!{{end}}</h1>
</div>
<div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 8px 8px;">
{{if .Admin}}<h2>New Order Details</h2>
<p><strong>Admin Notification:</strong> A new order has been placed for the {{.Product}}.</p>
{{else}}<h2>Hello {{.FullName}},</h2>
<p>Your order has been successfully placed and confirmed. Here are your order details:</p>
{{end}}<div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #0066CC;">
<h3>Order Information</h3>
<p><strong>Order ID:</strong> {{.OrderId}}</p>
<p><strong>Customer:</strong> {{.FullName}}</p>
<p><strong>Product:</strong> {{.Product}}</p>
<p><strong>Size:</strong> {{.Size}}</p>
<p><strong>Total:</strong> FREE</p>
<p><strong>Shipping Address:</strong><br>{{.Address}}</p>
</div>
{{if .Admin}}<p><strong>Action Required:</strong> Please process this order and ship the {{.Product}} to the customer.</p>
{{else}}<p>Your order will be shipped to the address provided. You'll receive tracking information once it ships.</p>
<ul>
<li>This is your one-time order limit</li>
<li>Shipping is free</li>
<li>Allow 2-3 weeks for delivery</li>
</ul>
{{end}}<p style="color: #666; font-size: 14px;">This email was sent to {{.To}}</p>
</div>
</body>
</html>
`

const textBody = `{{.Title}} - {{.Product}}

{{if .Admin}}New Order Details

Admin Notification: A new order has been placed for the {{.Product}}.
{{else}}Hello {{.FullName}},

Your order has been successfully placed and confirmed.
{{end}}
Order Information:
- Order ID: {{.OrderId}}
- Customer: {{.FullName}}
- Product: {{.Product}}
- Size: {{.Size}}
- Total: FREE
- Shipping Address: {{.Address}}
{{if .Admin}}
Action Required: Please process this order and ship the {{.Product}} to the customer.
{{else}}
Your order will be shipped to the address provided. You'll receive tracking information once it ships.

- This is your one-time order limit
- Shipping is free
- Allow 2-3 weeks for delivery
{{end}}`

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
	textTemplate = texttemplate.Must(texttemplate.New("text").Parse(textBody))
)
