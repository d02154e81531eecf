package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop-api/internal/events"
)

var funcs = template.FuncMap{
	"money": formatMoney,
	"total": func(l events.OrderLine) string { return formatMoney(l.LineTotal) },
}

const layoutHead = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
`

const layoutFoot = `
	<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
	<p style="font-size: 12px; color: #999; margin-bottom: 0;">
		This is an automated message. If you have any questions, please contact support.
	</p>
</body>
</html>`

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(layoutHead + `
	<div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hi {{.Name}}, we have received your order.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.Order.OrderNumber}}</p>
		</div>

		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
			{{- range .Order.Items}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{if .Name}}{{.Name}}{{else}}{{.ProductID}}{{end}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{money .UnitPrice}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{total .}}</td>
				</tr>
			{{- end}}
			</tbody>
		</table>

		<p style="text-align: right; margin: 0;">Shipping: {{money .Order.ShippingCost}}</p>
		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">{{money .Order.GrandTotal}}</span>
		</div>
	</div>` + layoutFoot))

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(layoutHead + `
	<h1 style="font-size: 22px;">Order {{.Change.OrderNumber}} update</h1>
	<p>Hi {{.Name}}, your order status changed from <strong>{{.Change.From}}</strong> to <strong>{{.Change.To}}</strong>.</p>
	{{- if .Change.Reason}}
	<p>Reason: {{.Change.Reason}}</p>
	{{- end}}` + layoutFoot))

// BuildOrderConfirmationBody renders the HTML receipt. User-supplied fields
// are escaped by html/template.
func BuildOrderConfirmationBody(name string, o events.OrderPlaced) (string, error) {
	return render(confirmationTmpl, struct {
		Name  string
		Order events.OrderPlaced
	}{name, o})
}

func BuildStatusUpdateBody(name string, c events.OrderStatusChanged) (string, error) {
	return render(statusTmpl, struct {
		Name   string
		Change events.OrderStatusChanged
	}{name, c})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// formatMoney renders d with two decimals and thousands separators.
func formatMoney(d decimal.Decimal) string {
	str := d.Abs().StringFixed(2)
	whole, frac := str[:len(str)-3], str[len(str)-3:]

	var out bytes.Buffer
	if d.IsNegative() {
		out.WriteByte('-')
	}
	out.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	out.WriteString(frac)
	return out.String()
}
